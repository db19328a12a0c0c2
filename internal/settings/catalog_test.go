package settings_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/smarthow-source/ATS-design-concept/internal/settings"
)

func newCatalog() *settings.Catalog {
	return settings.New(settings.Snapshot{})
}

func TestDefaults(t *testing.T) {
	c := newCatalog()

	fams := c.Families()
	require.Len(t, fams, 9)
	d, ok := c.Family("D")
	require.True(t, ok)
	assert.Equal(t, 90, d.Criteria.OnlineTestScore)
	assert.Equal(t, 80, d.Criteria.CognitiveTestScore)

	for _, tbl := range settings.Tables {
		assert.Len(t, c.Rules(tbl), 9, "table %s", tbl)
	}
	age := c.Rules(settings.TableAge)
	assert.Equal(t, "Facility Services", age[8].JobFamily)
	assert.Equal(t, settings.Number(45), age[8].Value)
	assert.Len(t, c.Universities(), 11)
	assert.True(t, c.HasTA("Louis Litt"))
	assert.False(t, c.HasTA("Harvey Specter"))
}

func TestUpdateRule_KeepsNumbersNumeric(t *testing.T) {
	c := newCatalog()

	r, err := c.UpdateRule(settings.TableGPA, 0, settings.FieldValue, " 3.5 ")
	require.NoError(t, err)
	assert.True(t, r.Value.Numeric)
	assert.Equal(t, 3.5, r.Value.Num)

	_, err = c.UpdateRule(settings.TableGPA, 0, settings.FieldValue, "high")
	assert.ErrorIs(t, err, settings.ErrInvalid)

	r, err = c.UpdateRule(settings.TableTopUniversity, 2, settings.FieldValue, "No")
	require.NoError(t, err)
	assert.False(t, r.Value.Numeric)
	assert.Equal(t, "No", r.Value.Text)

	r, err = c.UpdateRule(settings.TableAge, 1, settings.FieldOperator, "<=")
	require.NoError(t, err)
	assert.Equal(t, settings.OpLessEqual, r.Operator)

	_, err = c.UpdateRule(settings.TableAge, 1, settings.FieldOperator, "~")
	assert.ErrorIs(t, err, settings.ErrInvalid)
	_, err = c.UpdateRule(settings.TableAge, 42, settings.FieldValue, "1")
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestUniversities(t *testing.T) {
	c := settings.New(settings.Snapshot{Universities: []settings.University{}})

	list, err := c.AddUniversity(settings.University{University: "  Yale University ", Faculty: "All"})
	require.NoError(t, err)
	assert.Equal(t, "Yale University", list[0].University)

	_, err = c.AddUniversity(settings.University{University: "yale university", Faculty: "ALL"})
	assert.ErrorIs(t, err, settings.ErrInvalid, "duplicates are case-insensitive")

	_, err = c.AddUniversity(settings.University{University: "MIT", Faculty: " "})
	assert.ErrorIs(t, err, settings.ErrInvalid)

	list, err = c.AddUniversity(settings.University{University: "Columbia University", Faculty: "All"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Columbia University", "Yale University"}, []string{list[0].University, list[1].University})

	_, err = c.EditUniversity(0, settings.University{University: "Yale University", Faculty: "All"})
	assert.ErrorIs(t, err, settings.ErrInvalid)

	list, err = c.RemoveUniversity(0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = c.RemoveUniversity(5)
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestIsTopUniversity(t *testing.T) {
	c := newCatalog()
	assert.True(t, c.IsTopUniversity("harvard university", "Law School"))
	assert.True(t, c.IsTopUniversity("Stanford University", "School of Engineering"))
	assert.False(t, c.IsTopUniversity("Stanford University", "School of Medicine"))
	assert.False(t, c.IsTopUniversity("", "All"))
}

func TestRoles(t *testing.T) {
	c := newCatalog()
	base := settings.JobRole{
		Name: "Product Designer", JobFamilyCode: "C", Division: "Design",
		HMInterviewer: "Elena Rodriguez", ManagementInterviewer: "Elena Rodriguez",
	}

	pd, err := c.AddRole(base)
	require.NoError(t, err)
	assert.NotEmpty(t, pd.ID)

	dup := base
	dup.Name = "product designer"
	_, err = c.AddRole(dup)
	assert.ErrorIs(t, err, settings.ErrInvalid)

	missing := base
	missing.Name = "Backend Developer"
	missing.Division = ""
	_, err = c.AddRole(missing)
	assert.ErrorIs(t, err, settings.ErrInvalid)

	be := base
	be.Name = "Backend Developer"
	_, err = c.AddRole(be)
	require.NoError(t, err)
	roles := c.Roles()
	assert.Equal(t, "Backend Developer", roles[0].Name, "roles are sorted by name")

	edit := base
	edit.Name = "Backend Developer"
	_, err = c.EditRole(pd.ID, edit)
	assert.ErrorIs(t, err, settings.ErrInvalid, "renaming onto another role is a duplicate")

	edit.Name = "Senior Product Designer"
	_, err = c.EditRole(pd.ID, edit)
	require.NoError(t, err)

	require.NoError(t, c.RemoveRole(pd.ID))
	assert.ErrorIs(t, c.RemoveRole(pd.ID), settings.ErrNotFound)
}

func TestFamilies(t *testing.T) {
	c := newCatalog()

	_, err := c.UpdateFamily("D", settings.JobFamily{Name: "Engineering", Criteria: settings.TestCriteria{OnlineTestScore: 95, CognitiveTestScore: 85}})
	require.NoError(t, err)
	d, _ := c.Family("D")
	assert.Equal(t, "Engineering", d.Name)
	assert.Equal(t, "Engineering", c.Rules(settings.TableAge)[3].JobFamily, "rules follow a family rename")

	_, err = c.UpdateFamily("D", settings.JobFamily{Name: "Engineering", Criteria: settings.TestCriteria{OnlineTestScore: 101}})
	assert.ErrorIs(t, err, settings.ErrInvalid)

	assert.ErrorIs(t, c.AddFamily(settings.JobFamily{Code: "D", Name: "Again"}), settings.ErrInvalid)
	require.NoError(t, c.AddFamily(settings.JobFamily{Code: "X", Name: "Experimental"}))
	require.NoError(t, c.RemoveFamily("X"))
	assert.ErrorIs(t, c.RemoveFamily("X"), settings.ErrNotFound)
}

func TestEvaluateTriggers(t *testing.T) {
	c := newCatalog()

	got, err := c.EvaluateTriggers(settings.Profile{
		Age:        "38",
		University: "University of Oxford",
		Faculty:    "Law",
		GPA:        "2.5",
	}, "D")
	require.NoError(t, err)

	tables := make([]settings.Table, 0, len(got))
	for _, tr := range got {
		tables = append(tables, tr.Table)
	}
	// GPA 2.5 is below the family-D threshold of 3; assessment is unset.
	assert.Equal(t, []settings.Table{settings.TableAge, settings.TableTopUniversity}, tables)

	none, err := c.EvaluateTriggers(settings.Profile{Age: "abc", University: "Local College", Faculty: "Arts"}, "D")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = c.EvaluateTriggers(settings.Profile{}, "Z")
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestRuleMatches(t *testing.T) {
	cases := []struct {
		rule settings.Rule
		in   string
		want bool
	}{
		{settings.Rule{Operator: settings.OpGreater, Value: settings.Number(35)}, "36", true},
		{settings.Rule{Operator: settings.OpGreater, Value: settings.Number(35)}, "35", false},
		{settings.Rule{Operator: settings.OpGreaterEqual, Value: settings.Number(35)}, "35", true},
		{settings.Rule{Operator: settings.OpLess, Value: settings.Number(3)}, "2.9", true},
		{settings.Rule{Operator: settings.OpLessEqual, Value: settings.Number(3)}, "3.1", false},
		{settings.Rule{Operator: settings.OpIsNot, Value: settings.Number(3)}, "4", true},
		{settings.Rule{Operator: settings.OpIs, Value: settings.Text("Yes")}, "yes", true},
		{settings.Rule{Operator: settings.OpIsNot, Value: settings.Text("Yes")}, "No", true},
		{settings.Rule{Operator: settings.OpGreater, Value: settings.Text("Yes")}, "Yes", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.rule.Matches(tc.in), "%s %s vs %q", tc.rule.Operator, tc.rule.Value, tc.in)
	}
}

func TestValueEncoding(t *testing.T) {
	var rs []settings.Rule
	require.NoError(t, yaml.Unmarshal([]byte(`
- {jobFamily: Generalist, operator: ">=", value: 2}
- {jobFamily: Generalist, operator: is, value: "Yes"}
`), &rs))
	require.Len(t, rs, 2)
	assert.Equal(t, settings.Number(2), rs[0].Value)
	assert.Equal(t, settings.Text("Yes"), rs[1].Value)

	b, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"jobFamily":"Generalist","operator":">=","value":2},{"jobFamily":"Generalist","operator":"is","value":"Yes"}]`, string(b))

	var back []settings.Rule
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rs, back)
}
