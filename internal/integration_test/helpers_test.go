package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leengari/cohort-sql/internal/domain/schema"
)

// prescriptionsSnapshot covers every drug filter: wrong drug, unit casing, null dose,
// null stop time, zero-length and negative durations, and a zero dose
const prescriptionsSnapshot = `{
  "name": "mimiciv_hosp.prescriptions",
  "columns": [
    {"name": "subject_id", "type": "INTEGER"},
    {"name": "drug", "type": "TEXT"},
    {"name": "dose_val_rx", "type": "TEXT"},
    {"name": "dose_unit_rx", "type": "TEXT"},
    {"name": "starttime", "type": "DATETIME"},
    {"name": "stoptime", "type": "DATETIME"}
  ],
  "rows": [
    {"subject_id": 10, "drug": "Aspirin 81mg", "dose_val_rx": "0", "dose_unit_rx": "mg", "starttime": "2150-01-01 08:00:00", "stoptime": "2150-01-02 08:00:00"},
    {"subject_id": 10, "drug": "aspirin", "dose_val_rx": "325", "dose_unit_rx": "mg", "starttime": "2150-01-03 08:00:00", "stoptime": "2150-01-03 08:00:00"},
    {"subject_id": 11, "drug": "Heparin", "dose_val_rx": "5000", "dose_unit_rx": "UNIT", "starttime": "2150-01-05 00:00:00", "stoptime": "2150-01-06 00:00:00"},
    {"subject_id": 12, "drug": "Warfarin", "dose_val_rx": "5", "dose_unit_rx": "MG", "starttime": "2150-01-05 00:00:00", "stoptime": "2150-01-06 00:00:00"},
    {"subject_id": 13, "drug": "Clopidogrel", "dose_val_rx": null, "dose_unit_rx": "mg", "starttime": "2150-01-05 00:00:00", "stoptime": "2150-01-06 00:00:00"},
    {"subject_id": 14, "drug": "Apixaban", "dose_val_rx": "2.5", "dose_unit_rx": "mg", "starttime": "2150-02-01 00:00:00", "stoptime": null},
    {"subject_id": 15, "drug": "Enoxaparin", "dose_val_rx": "40", "dose_unit_rx": "mg", "starttime": "2150-03-02 00:00:00", "stoptime": "2150-03-01 12:00:00"}
  ]
}`

// prescriptionsCSV holds the same orders as prescriptionsSnapshot; every dose is an integer,
// so the loader reads the dose column as numeric
const prescriptionsCSV = `subject_id,drug,dose_val_rx,dose_unit_rx,starttime,stoptime
10,Aspirin 81mg,0,mg,2150-01-01 08:00:00,2150-01-02 08:00:00
10,aspirin,325,mg,2150-01-03 08:00:00,2150-01-03 08:00:00
11,Heparin,5000,UNIT,2150-01-05 00:00:00,2150-01-06 00:00:00
12,Warfarin,5,MG,2150-01-05 00:00:00,2150-01-06 00:00:00
13,Clopidogrel,,mg,2150-01-05 00:00:00,2150-01-06 00:00:00
14,Apixaban,2,mg,2150-02-01 00:00:00,
15,Enoxaparin,40,mg,2150-03-02 00:00:00,2150-03-01 12:00:00
`

func drugCSVDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mimiciv_hosp.prescriptions.csv"), []byte(prescriptionsCSV), 0644)
	require.NoError(t, err)
	return dir
}

func drugDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mimiciv_hosp.prescriptions.json"), []byte(prescriptionsSnapshot), 0644)
	require.NoError(t, err)
	return dir
}

func column(t *schema.Table, name string) []interface{} {
	out := make([]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}
