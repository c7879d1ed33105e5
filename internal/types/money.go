// README: Currency defaults shared by pricing and the HTTP layer.
package types

// DefaultCurrency is used when a quote is built without an explicit currency.
const DefaultCurrency = "INR"
