package tui

type route int

const (
	routeDashboard route = iota
	routeApplications
	routeVariants
	routeActivity
)

var allRoutes = []route{routeDashboard, routeApplications, routeVariants, routeActivity}

func (r route) title() string {
	switch r {
	case routeApplications:
		return "Applications"
	case routeVariants:
		return "Variants"
	case routeActivity:
		return "Activity"
	default:
		return "Dashboard"
	}
}

// section is the label the header shows for the route.
func (r route) section() string {
	switch r {
	case routeApplications:
		return "applications"
	case routeVariants:
		return "variants"
	case routeActivity:
		return "activity"
	default:
		return "dashboard"
	}
}

func (r route) scope() string {
	switch r {
	case routeApplications:
		return scopeApplications
	case routeVariants:
		return scopeVariants
	case routeActivity:
		return scopeActivity
	default:
		return scopeDashboard
	}
}
