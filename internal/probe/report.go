package probe

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	heading   = color.New(color.FgYellow).SprintFunc()
)

// writeReport prints the scenario table and a summary line. Passing rows
// are listed only when verbose is set.
func writeReport(out io.Writer, r Report, verbose bool) {
	_, _ = fmt.Fprintln(out, heading("\nPrediction scenarios"))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Result", "Scenario", "Grade", "Time", "Want", "Got", "Latency"})

	rows := 0
	for _, res := range r.Results {
		if res.Pass() && !verbose {
			continue
		}
		label := passLabel("PASS")
		if !res.Pass() {
			label = failLabel("FAIL")
		}
		table.Append([]string{
			label,
			res.Scenario.Name,
			res.Scenario.Grade,
			res.Scenario.TimeTaken,
			want(res.Scenario),
			got(res),
			res.Latency.Round(10*time.Microsecond).String(),
		})
		rows++
	}
	if rows > 0 {
		table.Render()
	}

	summary := fmt.Sprintf("%d passed, %d failed in %s", r.Passed, r.Failed, r.Duration.Round(time.Millisecond))
	if r.Failed > 0 {
		_, _ = fmt.Fprintln(out, failLabel(summary))
		return
	}
	_, _ = fmt.Fprintln(out, passLabel(summary))
}

func want(s Scenario) string {
	if s.WantStatus == http.StatusOK {
		return "200 grade " + strconv.Itoa(s.WantGrade)
	}
	return strconv.Itoa(s.WantStatus) + " " + s.WantCode
}

func got(r Result) string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.GotStatus == http.StatusOK:
		return "200 grade " + strconv.Itoa(r.GotGrade)
	default:
		return strconv.Itoa(r.GotStatus) + " " + r.GotCode
	}
}
