// README: Driver account creation through the Firebase Admin SDK.
package auth

import (
	"context"
	"log/slog"

	fbauth "firebase.google.com/go/v4/auth"
)

type FirebaseAccounts struct {
	client *fbauth.Client
}

func NewFirebaseAccounts(client *fbauth.Client) *FirebaseAccounts {
	return &FirebaseAccounts{client: client}
}

// CreateAccount creates an email/password user and tags it with a role claim so ID tokens
// minted for it carry the role.
func (a *FirebaseAccounts) CreateAccount(ctx context.Context, email, password string, role Role) (string, error) {
	rec, err := a.client.CreateUser(ctx, (&fbauth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", ErrEmailInUse
		}
		return "", err
	}
	if err := a.client.SetCustomUserClaims(ctx, rec.UID, map[string]interface{}{"role": string(role)}); err != nil {
		// The profile row still records the role.
		slog.WarnContext(ctx, "set role claim failed", "uid", rec.UID, "error", err)
	}
	return rec.UID, nil
}
