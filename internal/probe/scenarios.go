package probe

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/internal/domain/model"
)

// Scenario is one request and the answer the service must give.
type Scenario struct {
	Name      string
	Grade     string // raw query value, empty to omit
	TimeTaken string // raw query value, empty to omit

	WantStatus int
	WantGrade  int    // checked on 200
	WantCode   string // checked on non-200
}

// Query renders the scenario as a /predict query string.
func (s Scenario) Query() string {
	v := url.Values{}
	if s.Grade != "" {
		v.Set(grading.ParamGrade, s.Grade)
	}
	if s.TimeTaken != "" {
		v.Set(grading.ParamTimeTaken, s.TimeTaken)
	}
	return v.Encode()
}

// Scenarios builds the grid for rules: the grade edges and middle crossed
// with times on both sides of each threshold, plus one case per error kind.
func Scenarios(rules grading.Rules) []Scenario {
	grades := []int{rules.MinGrade, (rules.MinGrade + rules.MaxGrade) / 2, rules.MaxGrade}
	times := []float64{0, rules.FastBelow, rules.SlowAbove, rules.SlowAbove + 1}
	if rules.FastBelow >= 1 {
		times = append(times, rules.FastBelow-1)
	}
	if rules.SlowAbove > rules.FastBelow {
		times = append(times, (rules.FastBelow+rules.SlowAbove)/2)
	}

	out := make([]Scenario, 0, len(grades)*len(times)+6)
	for _, g := range grades {
		for _, t := range times {
			p := rules.Adjust(model.Request{CurrentGrade: g, TimeTaken: t})
			out = append(out, Scenario{
				Name:       string(p.Rule),
				Grade:      strconv.Itoa(g),
				TimeTaken:  strconv.FormatFloat(t, 'f', -1, 64),
				WantStatus: http.StatusOK,
				WantGrade:  p.AdjustedGrade,
			})
		}
	}

	const (
		missing  = "missing_parameter"
		format   = "invalid_format"
		outRange = "out_of_range"
	)
	mid := strconv.Itoa(grades[1])
	out = append(out,
		Scenario{Name: "no grade", TimeTaken: "30", WantStatus: http.StatusBadRequest, WantCode: missing},
		Scenario{Name: "no time", Grade: mid, WantStatus: http.StatusBadRequest, WantCode: missing},
		Scenario{Name: "text grade", Grade: "abc", TimeTaken: "30", WantStatus: http.StatusBadRequest, WantCode: format},
		Scenario{Name: "text time", Grade: mid, TimeTaken: "soon", WantStatus: http.StatusBadRequest, WantCode: format},
		Scenario{Name: "grade above max", Grade: strconv.Itoa(rules.MaxGrade + 1), TimeTaken: "30", WantStatus: http.StatusBadRequest, WantCode: outRange},
		Scenario{Name: "negative time", Grade: mid, TimeTaken: "-5", WantStatus: http.StatusBadRequest, WantCode: outRange},
	)
	return out
}
