package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Any valid access token
	SecurityStaff                       // Employee, admin or superadmin
	SecurityAdmin                       // Admin or superadmin
)

// EndpointSecurityConfig maps HTTP route names to their required security level.
// Services repeat the role checks; this gate rejects early at the edge.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"auth.register": SecurityPublic,
	"auth.login":    SecurityPublic,

	"users.me":             SecurityAccess,
	"users.delete":         SecurityAdmin,
	"users.list_clients":   SecurityStaff,
	"users.list_employees": SecurityAdmin,
	"users.register_staff": SecurityStaff,
	"users.debt":           SecurityStaff,

	"tools.list":   SecurityAccess,
	"tools.get":    SecurityAccess,
	"tools.create": SecurityAdmin,
	"tools.update": SecurityAdmin,
	"tools.delete": SecurityAdmin,
	"images.get":   SecurityPublic,

	"states.list":   SecurityAccess,
	"states.create": SecurityAdmin,
	"states.update": SecurityAdmin,
	"states.delete": SecurityAdmin,

	"inventory.filter":  SecurityAccess,
	"inventory.by_tool": SecurityAccess,
	"inventory.add":     SecurityAdmin,

	"kardex.filter":  SecurityStaff,
	"kardex.get":     SecurityStaff,
	"kardex.ranking": SecurityStaff,

	"loans.open":         SecurityStaff,
	"loans.get":          SecurityAccess,
	"loans.filter":       SecurityStaff,
	"loans.by_client":    SecurityAccess,
	"loans.overdue":      SecurityStaff,
	"loans.close":        SecurityStaff,
	"loans.delete":       SecurityStaff,
	"loans.items":        SecurityAccess,
	"loans.receive_all":  SecurityStaff,
	"loans.pay_debt":     SecurityStaff,
	"loans.pay_repair":   SecurityStaff,
	"loans.repair_items": SecurityStaff,

	"items.create":        SecurityStaff,
	"items.deliver":       SecurityStaff,
	"items.deliver_batch": SecurityStaff,
	"items.receive":       SecurityStaff,
	"items.delete":        SecurityStaff,
	"items.by_client":     SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
