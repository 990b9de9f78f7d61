package job_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want *float64
	}{
		{"nil", nil, nil},
		{"float", 45000.0, fptr(45000)},
		{"int", 12, fptr(12)},
		{"numeric string", " 45000 ", fptr(45000)},
		{"thousands separator", "45,000", fptr(45000)},
		{"decimal string", "1234.5", fptr(1234.5)},
		{"json number", json.Number("99"), fptr(99)},
		{"empty string", "", nil},
		{"garbage", "a lot", nil},
		{"bool", true, nil},
		{"nan", math.NaN(), nil},
		{"inf string", "Inf", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, job.ParseAmount(tt.in))
		})
	}
}

func fptr(f float64) *float64 { return &f }

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		j, err := job.New(job.JobRq{Title: "Go Dev", Company: "Acme", Location: "Remote"})
		require.NoError(t, err)
		assert.Equal(t, job.TypeFullTime, j.JobType)
		assert.Equal(t, job.LevelJunior, j.Level)
		assert.True(t, j.AllowPublicApply)
		assert.Nil(t, j.SalaryMin)
	})

	t.Run("normalises and sanitises", func(t *testing.T) {
		j, err := job.New(job.JobRq{
			Title:     "<b>Go Dev</b>",
			Company:   "Acme",
			Location:  "Remote",
			JobType:   "Contract",
			Level:     "SENIOR",
			SalaryMin: "40000",
			SalaryMax: 50000.0,
			Currency:  "eur",
		})
		require.NoError(t, err)
		assert.Equal(t, "Go Dev", j.Title)
		assert.Equal(t, job.TypeContract, j.JobType)
		assert.Equal(t, job.LevelSenior, j.Level)
		assert.Equal(t, 40000.0, *j.SalaryMin)
		assert.Equal(t, 50000.0, *j.SalaryMax)
		assert.Equal(t, "EUR", j.Currency)
	})

	errCases := []struct {
		name string
		rq   job.JobRq
	}{
		{"missing title", job.JobRq{Company: "Acme", Location: "Remote"}},
		{"missing company", job.JobRq{Title: "Go", Location: "Remote"}},
		{"missing location", job.JobRq{Title: "Go", Company: "Acme"}},
		{"bad type", job.JobRq{Title: "Go", Company: "Acme", Location: "Remote", JobType: "gig"}},
		{"bad level", job.JobRq{Title: "Go", Company: "Acme", Location: "Remote", Level: "guru"}},
		{"inverted salary", job.JobRq{Title: "Go", Company: "Acme", Location: "Remote", SalaryMin: 10, SalaryMax: 5}},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := job.New(tt.rq)
			assert.Error(t, err)
		})
	}
}

func TestQueryOrderBy(t *testing.T) {
	tests := map[string]string{
		"":                   "created_at DESC",
		"title:asc":          "title ASC",
		"salary_min:DESC":    "salary_min DESC",
		"created_at":         "created_at DESC",
		"id; DROP TABLE job": "created_at DESC",
		"title:sideways":     "title DESC",
	}
	for sort, want := range tests {
		t.Run(sort, func(t *testing.T) {
			assert.Equal(t, want, job.Query{Sort: sort}.OrderBy())
		})
	}
}

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"Title,Company,Location,Type,Level,Description,Salary Min,Salary Max,Public Apply",
		`Go Developer,Acme,"Madrid, Spain",full-time,senior,"Build ""things""",40000,50000,yes`,
		"",
		"Designer,,Remote,,,,,,no",
		"Intern,Acme,Remote,gig,,,,,",
		",,,,,,,,",
		"Data Engineer,Beta,Lisbon,contract,lead,,,,no",
	}, "\n")

	jobs, rowErrs, err := job.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Go Developer", jobs[0].Title)
	assert.Equal(t, "Madrid, Spain", jobs[0].Location)
	assert.Equal(t, 40000.0, *jobs[0].SalaryMin)
	assert.True(t, jobs[0].AllowPublicApply)
	assert.Equal(t, job.TypeContract, jobs[1].JobType)
	assert.False(t, jobs[1].AllowPublicApply)

	require.Len(t, rowErrs, 2)
	assert.Equal(t, 4, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Err, "company")
	assert.Equal(t, 5, rowErrs[1].Line)
}

func TestReadCSVRejectsBadHeader(t *testing.T) {
	_, _, err := job.ReadCSV(strings.NewReader("Name,Company\nx,y\n"))
	assert.Error(t, err)

	_, _, err = job.ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestCSVRoundTripThroughTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, job.WriteTemplateCSV(&buf))

	jobs, rowErrs, err := job.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Madrid, Spain", jobs[0].Location)
	assert.Equal(t, "EUR", jobs[0].Currency)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	j := &job.Job{ID: "abc", Title: "Go Dev", Company: "Acme", Location: "Remote", AllowPublicApply: true}
	require.NoError(t, job.WriteCSV(&buf, []*job.Job{j}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Created At,Title"))
	assert.True(t, strings.HasPrefix(lines[1], "abc,"))
	assert.True(t, strings.HasSuffix(lines[1], ",yes"))
}
