package job

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvColumns = []string{"Title", "Company", "Location", "Type", "Level", "Description", "Requirements", "Benefits", "Salary Min", "Salary Max", "Currency", "Public Apply"}

// RowError reports why one CSV line could not be turned into a job.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

// WriteCSV exports jobs with their id and creation time in front of the
// importable columns.
func WriteCSV(w io.Writer, jobs []*Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"ID", "Created At"}, csvColumns...)); err != nil {
		return err
	}
	for _, j := range jobs {
		record := append([]string{j.ID, j.CreatedAt.UTC().Format(time.RFC3339)}, toRecord(j)...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplateCSV writes the import headers and one example row.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	salaryMin, salaryMax := 45000.0, 60000.0
	example := &Job{
		Title:            "Backend Go Developer",
		Company:          "Acme Corp",
		Location:         "Madrid, Spain",
		JobType:          TypeFullTime,
		Level:            LevelSenior,
		Description:      "Build and run our Go services",
		Requirements:     "3+ years of Go, PostgreSQL",
		Benefits:         "Remote friendly, training budget",
		SalaryMin:        &salaryMin,
		SalaryMax:        &salaryMax,
		Currency:         "EUR",
		AllowPublicApply: true,
	}
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	if err := cw.Write(toRecord(example)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func toRecord(j *Job) []string {
	publicApply := "no"
	if j.AllowPublicApply {
		publicApply = "yes"
	}
	return []string{
		j.Title,
		j.Company,
		j.Location,
		j.JobType,
		j.Level,
		j.Description,
		j.Requirements,
		j.Benefits,
		formatAmount(j.SalaryMin),
		formatAmount(j.SalaryMax),
		j.Currency,
		publicApply,
	}
}

func formatAmount(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// ReadCSV parses an import file. Rows that cannot be parsed or validated are
// reported as RowErrors and do not stop the remaining rows. Line numbers are
// 1-based and count the header.
func ReadCSV(r io.Reader) ([]*Job, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, nil, err
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"title", "company", "location"} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("csv header is missing column %q", required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := index[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	jobs := []*Job{}
	rowErrs := []RowError{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			continue
		}
		publicApply := parseYes(field(record, "Public Apply"))
		j, err := New(JobRq{
			Title:            field(record, "Title"),
			Company:          field(record, "Company"),
			Location:         field(record, "Location"),
			JobType:          field(record, "Type"),
			Level:            field(record, "Level"),
			Description:      field(record, "Description"),
			Requirements:     field(record, "Requirements"),
			Benefits:         field(record, "Benefits"),
			SalaryMin:        field(record, "Salary Min"),
			SalaryMax:        field(record, "Salary Max"),
			Currency:         field(record, "Currency"),
			AllowPublicApply: &publicApply,
		})
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, rowErrs, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseYes(v string) bool {
	switch strings.ToLower(v) {
	case "", "yes", "y", "sí", "si", "1", "true":
		return true
	}
	return false
}
