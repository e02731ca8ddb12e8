package approval

// Role is the coarse classification used inside the approval chain. Several
// job-role tags collapse into a single approval role; the mapping lives in
// the workflow service, not here.
type Role string

const (
	RoleManager        Role = "manager"
	RoleHR             Role = "hr"
	RoleFactoryManager Role = "factory_manager"
	RoleFinal          Role = "final"
)
