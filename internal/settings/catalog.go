package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a family, rule, university or role does
	// not exist.
	ErrNotFound = errors.New("setting not found")
	// ErrInvalid marks user-facing validation failures.
	ErrInvalid = errors.New("invalid setting")
)

// TestCriteria are the pass thresholds of a job family.
type TestCriteria struct {
	OnlineTestScore    int `json:"onlineTestScore" yaml:"onlineTestScore" validate:"gte=0,lte=100"`
	CognitiveTestScore int `json:"cognitiveTestScore" yaml:"cognitiveTestScore" validate:"gte=0,lte=100"`
}

// JobFamily groups roles that share test criteria and CEO-trigger rules.
type JobFamily struct {
	Code     string       `json:"code" yaml:"code" validate:"required"`
	Name     string       `json:"name" yaml:"name" validate:"required"`
	Criteria TestCriteria `json:"testCriteria" yaml:"testCriteria"`
}

// University is one allow-list row. Faculty "All" matches every faculty.
type University struct {
	University string `json:"university" yaml:"university"`
	Faculty    string `json:"faculty" yaml:"faculty"`
}

// JobRole is one row of the job-role master.
type JobRole struct {
	ID                    string `json:"id" yaml:"id"`
	Name                  string `json:"name" yaml:"name" validate:"required"`
	JobFamilyCode         string `json:"jobFamilyCode" yaml:"jobFamilyCode" validate:"required"`
	Division              string `json:"division" yaml:"division" validate:"required"`
	HMInterviewer         string `json:"hmInterviewer" yaml:"hmInterviewer" validate:"required"`
	ManagementInterviewer string `json:"managementInterviewer" yaml:"managementInterviewer" validate:"required"`
}

// Snapshot is a point-in-time copy of every table.
type Snapshot struct {
	Families     []JobFamily      `json:"jobFamilies" yaml:"jobFamilies"`
	Rules        map[Table][]Rule `json:"ceoRules" yaml:"ceoRules"`
	Universities []University     `json:"topUniversities" yaml:"topUniversities"`
	Roles        []JobRole        `json:"jobRoles" yaml:"jobRoles"`
	TAs          []string         `json:"taRoster" yaml:"taRoster"`
}

// Catalog is the concurrency-safe settings store.
type Catalog struct {
	mu       sync.RWMutex
	validate *validator.Validate

	families     []JobFamily
	rules        map[Table][]Rule
	universities []University
	roles        []JobRole
	tas          []string
}

// New returns a catalog seeded from s. Empty tables fall back to the
// defaults, so a partial seed still yields a usable catalog.
func New(s Snapshot) *Catalog {
	d := Defaults()
	if len(s.Families) == 0 {
		s.Families = d.Families
	}
	if len(s.Rules) == 0 {
		s.Rules = d.Rules
	}
	if s.Universities == nil {
		s.Universities = d.Universities
	}
	if len(s.TAs) == 0 {
		s.TAs = d.TAs
	}

	c := &Catalog{
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		families:     slices.Clone(s.Families),
		rules:        make(map[Table][]Rule, len(Tables)),
		universities: slices.Clone(s.Universities),
		roles:        make([]JobRole, 0, len(s.Roles)),
		tas:          slices.Clone(s.TAs),
	}
	for t, rs := range s.Rules {
		c.rules[t] = slices.Clone(rs)
	}
	for _, r := range s.Roles {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		c.roles = append(c.roles, r)
	}
	sortUniversities(c.universities)
	sortRoles(c.roles)
	return c
}

// Snapshot returns a deep copy of every table.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := Snapshot{
		Families:     slices.Clone(c.families),
		Rules:        make(map[Table][]Rule, len(c.rules)),
		Universities: slices.Clone(c.universities),
		Roles:        slices.Clone(c.roles),
		TAs:          slices.Clone(c.tas),
	}
	for t, rs := range c.rules {
		out.Rules[t] = slices.Clone(rs)
	}
	return out
}

// ─── Job families ────────────────────────────────────────────────────────────

func (c *Catalog) Families() []JobFamily {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.families)
}

// Family looks a job family up by code.
func (c *Catalog) Family(code string) (JobFamily, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.familyIndex(code)
	if i < 0 {
		return JobFamily{}, false
	}
	return c.families[i], true
}

// AddFamily appends a new family. Codes are unique.
func (c *Catalog) AddFamily(f JobFamily) error {
	if err := c.check(f); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.familyIndex(f.Code) >= 0 {
		return fmt.Errorf("%w: job family %q already exists", ErrInvalid, f.Code)
	}
	c.families = append(c.families, f)
	return nil
}

// UpdateFamily replaces the name and criteria of family code. The code
// itself is immutable.
func (c *Catalog) UpdateFamily(code string, f JobFamily) (JobFamily, error) {
	f.Code = code
	if err := c.check(f); err != nil {
		return JobFamily{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.familyIndex(code)
	if i < 0 {
		return JobFamily{}, fmt.Errorf("job family %q: %w", code, ErrNotFound)
	}
	old := c.families[i].Name
	c.families[i] = f
	if old != f.Name {
		for t := range c.rules {
			for j := range c.rules[t] {
				if c.rules[t][j].JobFamily == old {
					c.rules[t][j].JobFamily = f.Name
				}
			}
		}
	}
	return f, nil
}

// RemoveFamily deletes family code.
func (c *Catalog) RemoveFamily(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.familyIndex(code)
	if i < 0 {
		return fmt.Errorf("job family %q: %w", code, ErrNotFound)
	}
	c.families = slices.Delete(c.families, i, i+1)
	return nil
}

func (c *Catalog) familyIndex(code string) int {
	return slices.IndexFunc(c.families, func(f JobFamily) bool { return f.Code == code })
}

// ─── CEO-trigger rules ───────────────────────────────────────────────────────

// Rules returns a copy of one rule table.
func (c *Catalog) Rules(t Table) []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rules[t])
}

// UpdateRule sets the operator or value of row index in table t.
func (c *Catalog) UpdateRule(t Table, index int, field Field, raw string) (Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rs, ok := c.rules[t]
	if !ok || index < 0 || index >= len(rs) {
		return Rule{}, fmt.Errorf("%s rule %d: %w", t, index, ErrNotFound)
	}
	r, err := rs[index].update(field, raw)
	if err != nil {
		return Rule{}, err
	}
	rs[index] = r
	return r, nil
}

// ─── Top universities ────────────────────────────────────────────────────────

func (c *Catalog) Universities() []University {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.universities)
}

// AddUniversity trims and inserts u, keeping the list sorted.
func (c *Catalog) AddUniversity(u University) ([]University, error) {
	u, err := cleanUniversity(u)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.universityIndex(u, -1) >= 0 {
		return nil, fmt.Errorf("%w: %s (%s) is already listed", ErrInvalid, u.University, u.Faculty)
	}
	c.universities = append(c.universities, u)
	sortUniversities(c.universities)
	return slices.Clone(c.universities), nil
}

// EditUniversity replaces row index.
func (c *Catalog) EditUniversity(index int, u University) ([]University, error) {
	u, err := cleanUniversity(u)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.universities) {
		return nil, fmt.Errorf("university %d: %w", index, ErrNotFound)
	}
	if c.universityIndex(u, index) >= 0 {
		return nil, fmt.Errorf("%w: %s (%s) is already listed", ErrInvalid, u.University, u.Faculty)
	}
	c.universities[index] = u
	sortUniversities(c.universities)
	return slices.Clone(c.universities), nil
}

// RemoveUniversity deletes row index.
func (c *Catalog) RemoveUniversity(index int) ([]University, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.universities) {
		return nil, fmt.Errorf("university %d: %w", index, ErrNotFound)
	}
	c.universities = slices.Delete(c.universities, index, index+1)
	return slices.Clone(c.universities), nil
}

// IsTopUniversity reports whether university/faculty is on the allow-list.
func (c *Catalog) IsTopUniversity(university, faculty string) bool {
	university, faculty = strings.TrimSpace(university), strings.TrimSpace(faculty)
	if university == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.universities {
		if !strings.EqualFold(u.University, university) {
			continue
		}
		if strings.EqualFold(u.Faculty, "All") || strings.EqualFold(u.Faculty, faculty) {
			return true
		}
	}
	return false
}

// universityIndex finds a case-insensitive duplicate of u, ignoring row skip.
func (c *Catalog) universityIndex(u University, skip int) int {
	for i, x := range c.universities {
		if i != skip && strings.EqualFold(x.University, u.University) && strings.EqualFold(x.Faculty, u.Faculty) {
			return i
		}
	}
	return -1
}

func cleanUniversity(u University) (University, error) {
	u.University = strings.TrimSpace(u.University)
	u.Faculty = strings.TrimSpace(u.Faculty)
	if u.University == "" || u.Faculty == "" {
		return u, fmt.Errorf("%w: university and faculty are required", ErrInvalid)
	}
	return u, nil
}

func sortUniversities(us []University) {
	slices.SortStableFunc(us, func(a, b University) int {
		if n := strings.Compare(a.University, b.University); n != 0 {
			return n
		}
		return strings.Compare(a.Faculty, b.Faculty)
	})
}

// ─── Job roles ───────────────────────────────────────────────────────────────

func (c *Catalog) Roles() []JobRole {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.roles)
}

// AddRole validates and inserts r with a fresh id.
func (c *Catalog) AddRole(r JobRole) (JobRole, error) {
	r = trimRole(r)
	if err := c.check(r); err != nil {
		return JobRole{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roleNameTaken(r.Name, "") {
		return JobRole{}, fmt.Errorf("%w: a role named %q already exists", ErrInvalid, r.Name)
	}
	r.ID = uuid.NewString()
	c.roles = append(c.roles, r)
	sortRoles(c.roles)
	return r, nil
}

// EditRole replaces the role with id.
func (c *Catalog) EditRole(id string, r JobRole) (JobRole, error) {
	r = trimRole(r)
	r.ID = id
	if err := c.check(r); err != nil {
		return JobRole{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.roles, func(x JobRole) bool { return x.ID == id })
	if i < 0 {
		return JobRole{}, fmt.Errorf("job role %q: %w", id, ErrNotFound)
	}
	if c.roleNameTaken(r.Name, id) {
		return JobRole{}, fmt.Errorf("%w: a role named %q already exists", ErrInvalid, r.Name)
	}
	c.roles[i] = r
	sortRoles(c.roles)
	return r, nil
}

// RemoveRole deletes the role with id.
func (c *Catalog) RemoveRole(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.roles, func(x JobRole) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("job role %q: %w", id, ErrNotFound)
	}
	c.roles = slices.Delete(c.roles, i, i+1)
	return nil
}

func (c *Catalog) roleNameTaken(name, exceptID string) bool {
	return slices.ContainsFunc(c.roles, func(x JobRole) bool {
		return x.ID != exceptID && strings.EqualFold(x.Name, name)
	})
}

func trimRole(r JobRole) JobRole {
	r.Name = strings.TrimSpace(r.Name)
	r.JobFamilyCode = strings.TrimSpace(r.JobFamilyCode)
	r.Division = strings.TrimSpace(r.Division)
	r.HMInterviewer = strings.TrimSpace(r.HMInterviewer)
	r.ManagementInterviewer = strings.TrimSpace(r.ManagementInterviewer)
	return r
}

func sortRoles(rs []JobRole) {
	slices.SortStableFunc(rs, func(a, b JobRole) int { return strings.Compare(a.Name, b.Name) })
}

// ─── TA roster ───────────────────────────────────────────────────────────────

// TAs returns the talent-acquisition roster.
func (c *Catalog) TAs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tas)
}

// HasTA reports whether name is on the roster.
func (c *Catalog) HasTA(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.tas, name)
}

// check runs struct validation and folds field errors into ErrInvalid.
func (c *Catalog) check(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fe validator.ValidationErrors
	if !errors.As(err, &fe) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	fields := make([]string, 0, len(fe))
	for _, f := range fe {
		fields = append(fields, fmt.Sprintf("%s (%s)", f.Field(), f.Tag()))
	}
	return fmt.Errorf("%w: all fields are required and in range: %s", ErrInvalid, strings.Join(fields, ", "))
}
