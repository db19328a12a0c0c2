package settings

// Profile is the subset of a candidate the CEO-trigger rules look at.
// Empty fields are unknown and never trigger.
type Profile struct {
	Age        string `json:"age"`
	Band       string `json:"band"`
	University string `json:"university"`
	Faculty    string `json:"faculty"`
	GPA        string `json:"gpa"`
	Assessment string `json:"assessment"`
}

// Trigger is one rule a profile satisfied.
type Trigger struct {
	Table Table  `json:"table"`
	Rule  Rule   `json:"rule"`
	Input string `json:"input"`
}

// EvaluateTriggers reports which CEO-trigger rules of familyCode the
// profile satisfies. The result is advisory: stage transitions never
// consult it. An unknown family yields ErrNotFound.
func (c *Catalog) EvaluateTriggers(p Profile, familyCode string) ([]Trigger, error) {
	fam, ok := c.Family(familyCode)
	if !ok {
		return nil, ErrNotFound
	}

	top := ""
	if p.University != "" {
		top = "No"
		if c.IsTopUniversity(p.University, p.Faculty) {
			top = "Yes"
		}
	}
	inputs := map[Table]string{
		TableAge:           p.Age,
		TableBand:          p.Band,
		TableTopUniversity: top,
		TableGPA:           p.GPA,
		TableAssessment:    p.Assessment,
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Trigger, 0)
	for _, t := range Tables {
		in := inputs[t]
		if in == "" {
			continue
		}
		for _, r := range c.rules[t] {
			if r.JobFamily != fam.Name {
				continue
			}
			// A blank text rule is unset.
			if !r.Value.Numeric && r.Value.Text == "" {
				continue
			}
			if r.Matches(in) {
				out = append(out, Trigger{Table: t, Rule: r, Input: in})
			}
		}
	}
	return out, nil
}
