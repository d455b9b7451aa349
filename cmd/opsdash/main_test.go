package main

import (
	"testing"
	"time"

	"github.com/medops/opsdash/internal/dashboard"
)

func TestServiceState(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		row  dashboard.ServiceRow
		want string
	}{
		{
			name: "lab sample collected",
			row:  dashboard.ServiceRow{SampleCollected: true, SampleCollectedAt: &now, ReportStatus: "in_progress"},
			want: "sample collected, report in_progress",
		},
		{
			name: "radiology conducted",
			row:  dashboard.ServiceRow{TestConducted: true, ConductedAt: &now},
			want: "conducted",
		},
		{
			name: "explicit status",
			row:  dashboard.ServiceRow{Status: "in_progress"},
			want: "in_progress",
		},
		{
			name: "untouched row",
			row:  dashboard.ServiceRow{},
			want: "pending",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serviceState(tc.row); got != tc.want {
				t.Errorf("serviceState = %q, want %q", got, tc.want)
			}
		})
	}
}
