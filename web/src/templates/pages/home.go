package pages

import (
	"maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// HomeContent shows whether the visitor is logged in.
func HomeContent(authenticated bool) gomponents.Node {
	if authenticated {
		return Div(
			Class("home"),
			H1(gomponents.Text("Welcome back")),
			P(gomponents.Text("You are logged in.")),
			A(Href("/logout"), gomponents.Text("Log out")),
		)
	}
	return Div(
		Class("home"),
		H1(gomponents.Text("yauth")),
		P(gomponents.Text("You are not logged in.")),
		A(Href("/auth"), gomponents.Text("Log in or sign up")),
	)
}

// AccountContent shows the logged-in account.
func AccountContent(email string) gomponents.Node {
	return Div(
		Class("account"),
		H1(gomponents.Text("Account")),
		P(gomponents.Textf("Signed in as %s", email)),
		A(Href("/logout"), gomponents.Text("Log out")),
	)
}

// AuthContent hosts the widget on its own page.
func AuthContent(widget gomponents.Node) gomponents.Node {
	return Div(Class("auth-page"), widget)
}
