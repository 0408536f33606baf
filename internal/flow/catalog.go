// internal/flow/catalog.go
package flow

import (
	"fmt"
	"sort"
)

// Input keys used by the built-in flows.
const (
	InputVideoQuery = "video_query"
)

// DefaultInputs are the values built-in flows fall back to when no other
// provider has the key.
var DefaultInputs = MapInputs{
	InputVideoQuery: "Fireship",
}

const defaultScreenshot = "tests_output/img.png"

var builtins = map[string]func() Flow{
	"youtube-search":      youtubeSearch,
	"youtube-description": youtubeDescription,
	"saucedemo-checkout":  saucedemoCheckout,
}

// BuiltinNames lists the built-in flows in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of the named built-in flow.
func Builtin(name string) (Flow, error) {
	build, ok := builtins[name]
	if !ok {
		return Flow{}, fmt.Errorf("unknown built-in flow %q", name)
	}
	return build(), nil
}

func youtubeSearch() Flow {
	f := New("youtube-search",
		Navigate("https://www.youtube.com/"),
		SetValue(`input[id="search"]`, "vitaracharts"),
		Click(`button[id="search-icon-legacy"]`),
		Wait(2000),
		Click(`a[id="video-title"]`),
		Wait(2000),
		Click(`button[class="ytp-play-button ytp-button"]`),
		Click(`div[id="description"]`),
		Click(`button[class="yt-spec-button-shape-next"]`),
		Screenshot(defaultScreenshot),
	)
	f.Description = "Search the video platform, open the first result and expand its description."
	return f
}

func youtubeDescription() Flow {
	f := New("youtube-description",
		Navigate("https://www.youtube.com"),
		SetInput(`input[name="search_query"]`, InputVideoQuery),
		PressKey(KeyEnter),
		Wait(2000),
		Click("#video-title"),
		Wait(3000),
		ExtractText("#description"),
	)
	f.Description = "Search for a video chosen by test input and read its description."
	return f
}

func saucedemoCheckout() Flow {
	const (
		usernameSelector = "input[name='user-name']"
		passwordSelector = "input[name='password']"
		loginButton      = "input[name='login-button']"
		backpackButton   = "#add-to-cart-sauce-labs-backpack"
	)
	f := New("saucedemo-checkout",
		Navigate("https://www.saucedemo.com/"),
		SetValue(usernameSelector, "standard_user"),
		SetValue(passwordSelector, "secret_sauce"),
		Click(loginButton),
		Click(backpackButton),
		Click(".shopping_cart_link"),
		Wait(3000),
		Click("#checkout"),
		SetValue(`input[name="firstName"]`, "Asish"),
		SetValue(`input[name="lastName"]`, "singh"),
		SetValue(`input[name="postalCode"]`, "410112"),
		Click(`input[name="continue"]`),
		Click(`button[name="finish"]`),
		Screenshot(defaultScreenshot),
	)
	f.Description = "Log in to the demo shop, buy the backpack and capture the confirmation page."
	return f
}
