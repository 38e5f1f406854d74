package httpx

// Page names. Each one matches a file frontend/templates/pages/<name>.tmpl.
const (
	PageHome            = "home"
	PageLeaderboard     = "leaderboard"
	PageLessons         = "lessons"
	PageLesson          = "lesson"
	PageUserProfile     = "user_profile"
	PageLogin           = "login"
	PageRegister        = "register"
	PageProfile         = "profile"
	PageAdminDashboard  = "admin_dashboard"
	PageAdminUsers      = "admin_users"
	PageAdminNews       = "admin_announcements"
	PageAdminNewsForm   = "admin_announcement_form"
	PageError           = "error"
	PageNotFound        = "not_found"
)

// Routes that guards and handlers redirect to.
const (
	PathHome  = "/"
	PathLogin = "/login"
)

const (
	// CSRFHeaderName is the header fetch calls echo the token in (canonical form).
	CSRFHeaderName = "X-Csrf-Token"
	// CSRFFormField is the hidden form field carrying the token.
	CSRFFormField = "csrf_token"
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	FormModeEdit   FormMode = "edit"
	FormModeCreate FormMode = "create"
)
