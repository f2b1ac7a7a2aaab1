package pipeline

// drugSteps are the default statements of the antithrombotic prescription cohort
var drugSteps = []StepDef{
	{
		Name: "SQL Statement for the prescriptions table",
		Text: `SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime FROM mimiciv_hosp.prescriptions;`,
	},
	{
		Name:     "Step 1",
		Subtitle: "Uniform casing for drug names and extended search for identical names (Using the mimic_hosp.prescriptions table for querying).",
		Text: `DROP TABLE IF EXISTS temp_one;
CREATE TEMP TABLE temp_one AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM mimiciv_hosp.prescriptions
WHERE LOWER(drug) LIKE LOWER('aspirin%')
OR LOWER(drug) LIKE LOWER('warfarin%')
OR LOWER(drug) LIKE LOWER('clopidogrel%')
OR LOWER(drug) LIKE LOWER('apixaban%')
OR LOWER(drug) LIKE LOWER('rivaroxaban%')
OR LOWER(drug) LIKE LOWER('dabigatran etexilate%')
OR LOWER(drug) LIKE LOWER('cilostazol%')
OR LOWER(drug) LIKE LOWER('enoxaparin%');
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_one;`,
	},
	{
		Name:     "Step 2",
		Subtitle: "The drug unit is MG (using the table from Step 1 for querying).",
		Text: `DROP TABLE IF EXISTS temp_two;
CREATE TEMP TABLE temp_two AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_one
WHERE dose_unit_rx = 'mg';
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_one
WHERE dose_unit_rx = 'mg';`,
	},
	{
		Name:     "Step 3",
		Subtitle: "The drug dose is not NULL (using the table from Step 2 for querying).",
		Text: `DROP TABLE IF EXISTS temp_three;
CREATE TEMP TABLE temp_three AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_two
WHERE dose_val_rx IS NOT NULL;
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_two
WHERE dose_val_rx IS NOT NULL;`,
	},
	{
		Name:     "Step 4",
		Subtitle: "The start and end times of drug usage are not NULL (using the table from Step 3 for querying).",
		Text: `DROP TABLE IF EXISTS temp_four;
CREATE TEMP TABLE temp_four AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_three
WHERE (starttime IS NOT NULL AND stoptime IS NOT NULL);
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime
FROM temp_three
WHERE (starttime IS NOT NULL AND stoptime IS NOT NULL);`,
	},
	{
		Name:     "Step 5",
		Subtitle: "1.Add the hours_diff column to store the duration from the start to the end of drug usage (in hours).\n2.Use ABS to ensure that the values in the hours_diff column are absolute, preventing negative values (Using the table from Step 4 for querying).",
		Text: `DROP TABLE IF EXISTS temp_five;
CREATE TEMP TABLE temp_five AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime,
ABS((julianday(stoptime) - julianday(starttime)) * 24) AS hours_diff
FROM temp_four;
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime,
ABS((julianday(stoptime) - julianday(starttime)) * 24) AS hours_diff
FROM temp_four;`,
	},
	{
		Name:     "Step 6",
		Subtitle: "Change all 0 values in the hours_diff column to 1 (Using the table from Step 5 for querying).",
		Text: `DROP TABLE IF EXISTS temp_six;
CREATE TEMP TABLE temp_six AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime,
CASE 
WHEN ABS((julianday(stoptime) - julianday(starttime)) * 24) = 0 
THEN 1 
ELSE ABS((julianday(stoptime) - julianday(starttime)) * 24)
END AS hours_diff
FROM temp_five;
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime,
CASE 
WHEN ABS((julianday(stoptime) - julianday(starttime)) * 24) = 0 
THEN 1 
ELSE ABS((julianday(stoptime) - julianday(starttime)) * 24)
END AS hours_diff
FROM temp_five;`,
	},
	{
		Name:     "Step 7",
		Subtitle: "Delete entire rows where the dose_val_rx column contains a value of 0 (Using the table from Step 6 for querying).",
		Text: `DROP TABLE IF EXISTS temp_seven;
CREATE TEMP TABLE temp_seven AS
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime, hours_diff
FROM temp_six;
DELETE FROM temp_seven
WHERE dose_val_rx = '0';
SELECT subject_id, drug, dose_val_rx, dose_unit_rx, starttime, stoptime, hours_diff
FROM temp_seven;`,
	},
}
