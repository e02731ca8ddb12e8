package catalog

import "strings"

// RoleTag is the fine-grained organizational role classification of a person.
type RoleTag string

const (
	RoleTagFactoryManager   RoleTag = "factory_manager"
	RoleTagUnitManager      RoleTag = "unit_manager"
	RoleTagSectionHead      RoleTag = "section_head"
	RoleTagSupervisor       RoleTag = "supervisor"
	RoleTagSeniorSpecialist RoleTag = "senior_specialist"
	RoleTagSpecialist       RoleTag = "specialist"
	RoleTagAssociate        RoleTag = "associate"
	RoleTagEmployee         RoleTag = "employee"
	RoleTagOfficeAssistant  RoleTag = "office_assistant"
)

// Settings carries the organization-level codes the catalog is built from.
// The value is loaded from config once at startup and treated as immutable
// afterwards; nothing in this package mutates it.
type Settings struct {
	RoleFactoryManager   string
	RoleUnitManager      string
	RoleSectionHead      string
	RoleSupervisor       string
	RoleSeniorSpecialist string
	RoleSpecialist       string
	RoleAssociate        string
	RoleEmployee         string
	RoleOfficeAssistant  string

	// HRUnitCodes lists the unit codes whose unit manager acts as HR.
	HRUnitCodes []string

	FormCodeEmployee   string
	FormCodeAssociate  string
	FormCodeSupervisor string
	FormCodeSpecialist string
	FormCodeManager    string
}

// DefaultSettings returns the production role/form code assignments.
func DefaultSettings() Settings {
	return Settings{
		RoleFactoryManager:   "900",
		RoleUnitManager:      "901",
		RoleSectionHead:      "902",
		RoleSupervisor:       "903",
		RoleEmployee:         "904",
		RoleSpecialist:       "906",
		RoleSeniorSpecialist: "907",
		RoleAssociate:        "908",
		RoleOfficeAssistant:  "909",

		HRUnitCodes: []string{"202"},

		FormCodeEmployee:   "HR-F-80",
		FormCodeAssociate:  "HR-F-81",
		FormCodeSupervisor: "HR-F-82",
		FormCodeSpecialist: "HR-F-83",
		FormCodeManager:    "HR-F-84",
	}
}

// Catalog maps job-role codes to role tags and evaluation forms to the role
// tags eligible as subject and as evaluator. Pure lookups, no state.
type Catalog struct {
	settings    Settings
	tagByCode   map[string]RoleTag
	targets     map[string][]RoleTag
	evaluators  map[string][]RoleTag
	defaultForm map[RoleTag]string
	hrUnits     map[string]bool
}

// New builds a catalog from the given settings.
func New(s Settings) *Catalog {
	c := &Catalog{
		settings: s,
		tagByCode: map[string]RoleTag{
			s.RoleFactoryManager:   RoleTagFactoryManager,
			s.RoleUnitManager:      RoleTagUnitManager,
			s.RoleSectionHead:      RoleTagSectionHead,
			s.RoleSupervisor:       RoleTagSupervisor,
			s.RoleSeniorSpecialist: RoleTagSeniorSpecialist,
			s.RoleSpecialist:       RoleTagSpecialist,
			s.RoleAssociate:        RoleTagAssociate,
			s.RoleEmployee:         RoleTagEmployee,
			s.RoleOfficeAssistant:  RoleTagOfficeAssistant,
		},
		targets: map[string][]RoleTag{
			s.FormCodeEmployee:   {RoleTagEmployee},
			s.FormCodeAssociate:  {RoleTagAssociate},
			s.FormCodeSupervisor: {RoleTagSupervisor, RoleTagSeniorSpecialist, RoleTagOfficeAssistant},
			s.FormCodeSpecialist: {RoleTagSpecialist},
			s.FormCodeManager:    {RoleTagUnitManager, RoleTagSectionHead},
		},
		evaluators: map[string][]RoleTag{
			s.FormCodeEmployee:   {RoleTagUnitManager, RoleTagSectionHead, RoleTagSupervisor, RoleTagSeniorSpecialist},
			s.FormCodeAssociate:  {RoleTagUnitManager, RoleTagSectionHead},
			s.FormCodeSupervisor: {RoleTagUnitManager, RoleTagSectionHead},
			s.FormCodeSpecialist: {RoleTagUnitManager, RoleTagSectionHead},
			s.FormCodeManager:    {RoleTagFactoryManager, RoleTagUnitManager},
		},
		defaultForm: map[RoleTag]string{
			RoleTagEmployee:         s.FormCodeEmployee,
			RoleTagAssociate:        s.FormCodeAssociate,
			RoleTagSupervisor:       s.FormCodeSupervisor,
			RoleTagSeniorSpecialist: s.FormCodeSupervisor,
			RoleTagOfficeAssistant:  s.FormCodeSupervisor,
			RoleTagSpecialist:       s.FormCodeSpecialist,
			RoleTagUnitManager:      s.FormCodeManager,
			RoleTagSectionHead:      s.FormCodeManager,
			// The factory manager is not evaluated.
		},
		hrUnits: map[string]bool{},
	}
	for _, code := range s.HRUnitCodes {
		c.hrUnits[code] = true
	}
	return c
}

// NormalizeFormCode trims and upper-cases a form code for lookup.
func NormalizeFormCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RoleTagOf maps a job-role code to its role tag.
func (c *Catalog) RoleTagOf(code string) (RoleTag, bool) {
	tag, ok := c.tagByCode[strings.TrimSpace(code)]
	return tag, ok
}

// RoleCodeOf is the reverse mapping, used when persisting snapshots.
func (c *Catalog) RoleCodeOf(tag RoleTag) (string, bool) {
	for code, t := range c.tagByCode {
		if t == tag {
			return code, true
		}
	}
	return "", false
}

// KnownForm reports whether the form code is one of the configured forms.
func (c *Catalog) KnownForm(formCode string) bool {
	_, ok := c.targets[NormalizeFormCode(formCode)]
	return ok
}

// TargetRoleTags returns the subject role tags a form is defined for.
func (c *Catalog) TargetRoleTags(formCode string) []RoleTag {
	return c.targets[NormalizeFormCode(formCode)]
}

// IsTargetRole reports whether tag may be evaluated with the given form.
func (c *Catalog) IsTargetRole(formCode string, tag RoleTag) bool {
	for _, t := range c.targets[NormalizeFormCode(formCode)] {
		if t == tag {
			return true
		}
	}
	return false
}

// EvaluatorRoleTags returns the evaluator role tags allowed for a form.
func (c *Catalog) EvaluatorRoleTags(formCode string) []RoleTag {
	return c.evaluators[NormalizeFormCode(formCode)]
}

// IsEvaluatorRole reports whether tag may evaluate with the given form.
func (c *Catalog) IsEvaluatorRole(formCode string, tag RoleTag) bool {
	for _, t := range c.evaluators[NormalizeFormCode(formCode)] {
		if t == tag {
			return true
		}
	}
	return false
}

// DefaultFormFor returns the default form for a subject role tag, if any.
func (c *Catalog) DefaultFormFor(tag RoleTag) (string, bool) {
	code, ok := c.defaultForm[tag]
	return code, ok
}

// EligibleFormsFor lists every form that targets the given role tag.
func (c *Catalog) EligibleFormsFor(tag RoleTag) []string {
	var forms []string
	for code, tags := range c.targets {
		for _, t := range tags {
			if t == tag {
				forms = append(forms, code)
				break
			}
		}
	}
	return forms
}

// ManagerFormCode returns the manager-grade form (unit manager / section
// head subjects), which carries its own eligibility rules.
func (c *Catalog) ManagerFormCode() string {
	return c.settings.FormCodeManager
}

// IsHRUnit reports whether the unit code belongs to the HR organization.
func (c *Catalog) IsHRUnit(unitCode string) bool {
	return c.hrUnits[unitCode]
}
