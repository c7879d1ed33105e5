// README: App-store hand-off: picks the store listing for an app from the user agent.
package appstore

import (
	"errors"
	"regexp"
	"strings"
)

var ErrUnknownApp = errors.New("unknown app")

type App string

const (
	AppCustomer App = "customer"
	AppDriver   App = "driver"
)

type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Listing holds both store URLs for one app.
type Listing struct {
	PlayStore string
	AppStore  string
}

var listings = map[App]Listing{
	AppCustomer: {
		PlayStore: "https://play.google.com/store/apps/details?id=com.transporter.customer",
		AppStore:  "https://apps.apple.com/in/app/transporter-customer/id6755738681",
	},
	AppDriver: {
		PlayStore: "https://play.google.com/store/apps/details?id=com.transporter.driver",
		AppStore:  "https://apps.apple.com/in/app/transporter-driver/id6755738682",
	},
}

var iosDevices = regexp.MustCompile(`iPad|iPhone|iPod`)

func ParseApp(s string) (App, error) {
	a := App(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := listings[a]; !ok {
		return "", ErrUnknownApp
	}
	return a, nil
}

// DetectPlatform checks "android" case-insensitively first; iOS device names are
// matched case-sensitively. Anything else is treated as Android.
func DetectPlatform(userAgent string) Platform {
	if strings.Contains(strings.ToLower(userAgent), "android") {
		return PlatformAndroid
	}
	if iosDevices.MatchString(userAgent) {
		return PlatformIOS
	}
	return PlatformAndroid
}

// StoreURL returns the listing URL for app on the user agent's platform.
func StoreURL(app App, userAgent string) (string, error) {
	l, ok := listings[app]
	if !ok {
		return "", ErrUnknownApp
	}
	if DetectPlatform(userAgent) == PlatformIOS {
		return l.AppStore, nil
	}
	return l.PlayStore, nil
}
