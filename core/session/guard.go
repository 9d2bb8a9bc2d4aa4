package session

import (
	"path"
	"sort"
	"strings"
)

const (
	LoginPath          = "/login"
	ForgotPasswordPath = "/forgot-password"
)

// Decision kinds
const (
	Allow DecisionKind = iota
	Redirect
	NotFound
)

var (
	publicRoutes = []Route{
		{Path: LoginPath, Screen: "Login"},
		{Path: ForgotPasswordPath, Screen: "Forgot Password"},
	}

	roleScreens = map[Role][]string{
		RoleGuardian:        {"dashboard", "attendance", "diary", "fees", "transport", "leave", "notifications"},
		RoleInstructor:      {"dashboard", "attendance", "diary", "leave", "curriculum", "notifications"},
		RoleAdministrator:   {"dashboard", "attendance", "fees", "transport", "curriculum", "notifications", "users"},
		RoleVehicleOperator: {"dashboard", "transport", "notifications"},
	}

	screenTitles = map[string]string{
		"dashboard":     "Dashboard",
		"attendance":    "Attendance",
		"diary":         "Diary",
		"fees":          "Fee Payments",
		"transport":     "Transport Tracking",
		"leave":         "Leave Applications",
		"curriculum":    "Curriculum",
		"notifications": "Notifications",
		"users":         "User Management",
	}
)

type (
	DecisionKind int

	// Route is a screen reachable at Path. Routes without a Role are public.
	Route struct {
		Path   string `json:"path"`
		Screen string `json:"screen"`
		Role   Role   `json:"role,omitempty"`
	}

	Decision struct {
		Kind   DecisionKind
		Route  Route  // set when allowed
		Target string // set when redirected
	}

	// SessionSource is anything exposing the active session, typically a *Manager.
	SessionSource interface {
		ActiveSession() (Session, bool)
	}

	// Guard decides whether a route may be rendered for the active session.
	Guard struct {
		src    SessionSource
		routes map[string]Route
	}
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not found"
	}
	return "unknown"
}

func NewGuard(src SessionSource) *Guard {
	routes := make(map[string]Route)
	for _, r := range Routes() {
		routes[r.Path] = r
	}
	return &Guard{src: src, routes: routes}
}

// DashboardPath is the landing route of a role.
func DashboardPath(role Role) string {
	return "/" + string(role) + "/dashboard"
}

// Routes lists every known route, public ones first, then by path.
func Routes() []Route {
	routes := make([]Route, 0, len(publicRoutes)+32)
	routes = append(routes, publicRoutes...)

	roleRoutes := make([]Route, 0, 32)
	for role, screens := range roleScreens {
		for _, scr := range screens {
			roleRoutes = append(roleRoutes, Route{
				Path:   "/" + string(role) + "/" + scr,
				Screen: role.DisplayName() + " " + screenTitles[scr],
				Role:   role,
			})
		}
	}
	sort.Slice(roleRoutes, func(i, j int) bool { return roleRoutes[i].Path < roleRoutes[j].Path })
	return append(routes, roleRoutes...)
}

// Resolve checks a navigation to p against the active session.
func (g *Guard) Resolve(p string) Decision {
	p = cleanPath(p)
	sess, authenticated := g.src.ActiveSession()

	// "/" and bare role prefixes land on a dashboard
	if p == "/" {
		if !authenticated {
			return Decision{Kind: Redirect, Target: LoginPath}
		}
		return Decision{Kind: Redirect, Target: DashboardPath(sess.Role)}
	}
	if role := Role(strings.TrimPrefix(p, "/")); role.IsValid() {
		return g.Resolve(DashboardPath(role))
	}

	route, ok := g.routes[p]
	if !ok {
		return Decision{Kind: NotFound}
	}
	if route.Role == "" {
		return Decision{Kind: Allow, Route: route}
	}
	if !authenticated {
		return Decision{Kind: Redirect, Target: LoginPath}
	}
	if route.Role != sess.Role {
		return Decision{Kind: Redirect, Target: DashboardPath(sess.Role)}
	}
	return Decision{Kind: Allow, Route: route}
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(strings.ToLower(p))
}
