// Package cloudauth maintains an authenticated session against the Comfort
// Cloud identity provider and API backend.
//
// A Session owns exactly one Token. Callers never drive the login flow
// directly: ExecuteGet and ExecutePost call EnsureLoggedIn, which performs
// the full OAuth2 authorization-code exchange (with PKCE) when no token is
// held, refreshes an expired token, and does nothing for a valid one.
//
// # Login flow
//
//	authorize ──302──► authorize_redirect (_csrf cookie)
//	                        │
//	                        ▼
//	            usernamepassword/login ──200 HTML──► hidden inputs
//	                        │
//	                        ▼
//	            login/callback ──302──► login_redirect ──302 ?code=
//	                        │
//	                        ▼
//	            oauth/token (get_token) ──► auth/v2/login (get_acc_client_id)
//
// When the authorize redirect already targets the app redirect URI (the
// provider still has a session cookie) the interactive steps are skipped.
//
// # Validity
//
// A token is valid only while both the exp claim embedded in the access
// token and the locally recorded receipt time plus expires_in lie in the
// future. The receipt time is taken before the token request is sent.
//
// # Errors
//
// Every failing step surfaces as an *AuthenticationError naming the step and
// wrapping a *ResponseError (unexpected status), *RequestError (transport)
// or *ParseError (bad JSON). Nothing is retried. The held Token is replaced
// only after a flow completes.
//
// # Thread Safety
//
// A Session may be shared. EnsureLoggedIn, refresh and Logout are serialised
// so concurrent callers never race two refreshes.
package cloudauth
