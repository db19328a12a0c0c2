package settings

import "slices"

var defaultFamilies = []JobFamily{
	{"L", "Enterprise Leadership & Strategy", TestCriteria{85, 85}},
	{"E", "Specialist Expertise & Advisory", TestCriteria{80, 80}},
	{"G", "Generalist", TestCriteria{70, 75}},
	{"D", "System, Product & Solution Development", TestCriteria{90, 80}},
	{"A", "Administrative & Operational Support", TestCriteria{65, 70}},
	{"R", "Relationship & Value Management", TestCriteria{75, 75}},
	{"C", "Creative & Content Production", TestCriteria{75, 80}},
	{"O", "Process Execution & Delivery", TestCriteria{70, 70}},
	{"F", "Facility Services", TestCriteria{60, 60}},
}

var defaultUniversities = []University{
	{"Harvard University", "All"},
	{"Stanford University", "School of Engineering"},
	{"Stanford University", "Graduate School of Business"},
	{"Massachusetts Institute of Technology (MIT)", "All"},
	{"University of Cambridge", "All"},
	{"University of Oxford", "All"},
	{"Princeton University", "School of Engineering and Applied Science"},
	{"Yale University", "All"},
	{"Columbia University", "All"},
	{"California Institute of Technology (Caltech)", "All"},
	{"University of Chicago", "Booth School of Business"},
}

var defaultTAs = []string{"Sarah Jenks", "Mike Ross", "Jessica Pearson", "Louis Litt"}

// Defaults returns the stock settings: nine job families, one CEO-trigger
// rule per family in every table, the top-university list and the TA
// roster. The job-role master starts empty.
func Defaults() Snapshot {
	perFamily := func(op Operator, value func(code string) Value) []Rule {
		rs := make([]Rule, 0, len(defaultFamilies))
		for _, f := range defaultFamilies {
			rs = append(rs, Rule{JobFamily: f.Name, Operator: op, Value: value(f.Code)})
		}
		return rs
	}

	return Snapshot{
		Families: slices.Clone(defaultFamilies),
		Rules: map[Table][]Rule{
			TableAge: perFamily(OpGreater, func(code string) Value {
				if code == "F" {
					return Number(45)
				}
				return Number(35)
			}),
			TableBand: perFamily(OpGreaterEqual, func(code string) Value {
				switch code {
				case "F":
					return Number(9)
				case "A", "O":
					return Number(10)
				}
				return Number(11)
			}),
			TableTopUniversity: perFamily(OpIs, func(string) Value { return Text("Yes") }),
			TableGPA: perFamily(OpGreaterEqual, func(code string) Value {
				switch code {
				case "L", "E", "G":
					return Number(2)
				}
				return Number(3)
			}),
			TableAssessment: perFamily(OpIs, func(string) Value { return Text("") }),
		},
		Universities: slices.Clone(defaultUniversities),
		TAs:          slices.Clone(defaultTAs),
	}
}
