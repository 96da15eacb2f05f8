package cloudauth

// Identity provider and backend defaults for the Comfort Cloud Android app.
const (
	DefaultAuthURL    = "https://authglb.digital.panasonic.com"
	DefaultAPIURL     = "https://accsmart.panasonic.com"
	DefaultAppVersion = "1.21.0"

	// AppClientID is the OAuth client registered for the mobile app.
	AppClientID = "Xmy6xIYIitMxngjB2rHvlm6HSDNnaMJx"

	// Auth0Client is the base64 SDK descriptor the app sends to Auth0.
	Auth0Client = "eyJuYW1lIjoiQXV0aDAuQW5kcm9pZCIsImVudiI6eyJhbmRyb2lkIjoiMzAifSwidmVyc2lvbiI6IjIuOS4zIn0="

	// RedirectURI is the app callback. The flow never follows it; the code is
	// read from the Location header that points at it.
	RedirectURI = "panasonic-iot-cfc://authglb.digital.panasonic.com/android/com.panasonic.ACCsmart/callback"

	// Scope requested at authorization.
	Scope = "openid offline_access comfortcloud.control a2w.control"

	// Audience identifies the backend API the access token is minted for.
	Audience = "https://digital.panasonic.com/" + AppClientID + "/api/v1/"
)

// Login form values expected by the Auth0 tenant.
const (
	tenant     = "pdpauthglb-a1"
	connection = "PanasonicID-Authentication"
)

// Header values.
const (
	contentTypeJSON = "application/json;charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"

	appName          = "Comfort Cloud"
	appUserAgent     = "G-RAC"
	appType          = "1"
	okhttpUserAgent  = "okhttp/4.10.0"
	browserUserAgent = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/113.0.0.0 Mobile Safari/537.36"

	// timestampLayout formats the x-app-timestamp header.
	timestampLayout = "2006-01-02 15:04:05"
)

// Random value lengths.
const (
	stateLength    = 20
	verifierLength = 43
	apiKeyLength   = 128
)

// Step names reported in errors and traces.
const (
	StepAuthorize         = "authorize"
	StepAuthorizeRedirect = "authorize_redirect"
	StepLogin             = "login"
	StepLoginCallback     = "login_callback"
	StepLoginRedirect     = "login_redirect"
	StepGetToken          = "get_token"
	StepGetAccClientID    = "get_acc_client_id"
	StepRefreshToken      = "refresh_token"
	StepLogout            = "logout"
	StepUserInfo          = "userinfo"
	StepAppVersion        = "app_version"
)

// maxBodySize caps how much of any response body is read.
const maxBodySize = 4 << 20
