// Package templates holds the FraudGuard page components.
//
// Pages are written as .templ files; the _templ.go files next to them are
// produced by templ generate and checked in.
package templates

//go:generate templ generate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/core"
	"github.com/JonMunkholm/fraudguard/internal/format"
)

// Navigation keys for Page.Active.
const (
	NavDashboard = "dashboard"
	NavPredict   = "predict"
	NavHistory   = "history"
	NavChat      = "chat"
	NavAbout     = "about"
)

// Form ids.
const (
	PredictFormID = "predictForm"
	LoginFormID   = "loginForm"
	SignupFormID  = "signupForm"
	ChatFormID    = "chatForm"
)

// Page describes the shell around a page's content.
type Page struct {
	Title  string
	Active string

	// RequiresAPI marks <main> with data-requires-api so page
	// initialization checks the scoring API.
	RequiresAPI bool

	// UserName is the signed-in account, empty when signed out.
	UserName string
	// LoginRequired hides the app navigation from signed-out visitors.
	LoginRequired bool
}

// ShowAppNav reports whether the app sections are linked in the navbar.
func (p Page) ShowAppNav() bool {
	return p.UserName != "" || !p.LoginRequired
}

var navItems = []struct {
	key, href, icon, label string
}{
	{NavDashboard, "/", "tachometer-alt", "Dashboard"},
	{NavPredict, "/predict", "search-dollar", "Predict"},
	{NavHistory, "/history", "history", "History"},
	{NavChat, "/chatbot", "robot", "Assistant"},
	{NavAbout, "/about", "info-circle", "About"},
}

// PredictView is the state of the predict page.
type PredictView struct {
	Values url.Values        // shown in the inputs
	Errors map[string]string // field name to message
	Result *core.PredictResult
}

// AuthView is the state of the login and signup forms. Passwords are
// never echoed back.
type AuthView struct {
	Values url.Values
	Errors map[string]string
}

// ChatView is the assistant transcript.
type ChatView struct {
	Turns []core.ChatTurn
	Error string
}

func navClass(key, active string) string {
	if key == active {
		return "nav-link active"
	}
	return "nav-link"
}

func pageItemClass(disabled, active bool) string {
	class := "page-item"
	if disabled {
		class += " disabled"
	}
	if active {
		class += " active"
	}
	return class
}

func pageHref(target, perPage int) string {
	href := "/history?page=" + strconv.Itoa(target)
	if perPage != core.DefaultPerPage {
		href += "&per_page=" + strconv.Itoa(perPage)
	}
	return href
}

func score(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func riskStyle(s float64) map[string]string {
	return map[string]string{"color": format.RiskColor(s)}
}

func fieldLabel(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func inputType(name string) string {
	if core.TransactionFieldKind(name) == "int" {
		return "number"
	}
	return "text"
}

func inputClass(msg string) string {
	if msg != "" {
		return "form-control is-invalid"
	}
	return "form-control"
}

func chatClass(kind string) string {
	switch kind {
	case core.ChatSuccess, core.ChatWarning, core.ChatDanger:
		return "bg-" + kind + "-subtle"
	default:
		return "bg-info-subtle"
	}
}
