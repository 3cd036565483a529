package nav

import "github.com/Purab2001/CourseHub-client/internal/role"

// MenuItem is one dashboard navigation entry. Icon is the symbolic
// icon name the frontend maps to its icon set.
type MenuItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var overview = MenuItem{
	Path:  "/dashboard",
	Label: "Overview",
	Icon:  "dashboard",
}

// menusByRole is a static table; role determines exactly one fixed
// set, with no inheritance or precedence rules.
var menusByRole = map[role.Role][]MenuItem{
	role.Student: {
		{Path: "/dashboard/my-courses", Label: "My Courses", Icon: "menu-book"},
		{Path: "/dashboard/payments", Label: "Payments", Icon: "payment"},
	},
	role.Instructor: {
		{Path: "/dashboard/add-course", Label: "Add Course", Icon: "add"},
		{Path: "/dashboard/my-courses", Label: "My Courses", Icon: "menu-book"},
		{Path: "/dashboard/students", Label: "Students", Icon: "people"},
	},
	role.Admin: {
		{Path: "/dashboard/all-users", Label: "All Users", Icon: "person"},
		{Path: "/dashboard/all-courses", Label: "All Courses", Icon: "school"},
		{Path: "/dashboard/transactions", Label: "Transactions", Icon: "account-balance"},
	},
}

// MenuFor returns the menu set for r. Every role gets Overview;
// roles outside the table get the base list only.
func MenuFor(r role.Role) []MenuItem {
	items := []MenuItem{overview}
	return append(items, menusByRole[r]...)
}
