package pipeline

// diseaseSteps are the default statements of the psychosis/ischemic-stroke cohort.
// Steps 0-12 preview the source extracts; steps 13-35 derive the cohort.
var diseaseSteps = []StepDef{
	{
		Name: "SQL statement for the admissions table",
		Text: `SELECT subject_id, admittime FROM mimiciv_hosp.admissions;`,
	},
	{
		Name: "SQL statement for the diagnoses_icd table",
		Text: `SELECT subject_id, seq_num, icd_code, icd_version FROM mimiciv_hosp.diagnoses_icd;`,
	},
	{
		Name: "SQL statement for the patients table",
		Text: `SELECT subject_id, gender, anchor_age, anchor_year, dod FROM mimiciv_hosp.patients;`,
	},
	{
		Name: "SQL statement for the diagnosis table",
		Text: `SELECT subject_id, seq_num, icd_code, icd_version FROM mimic_ed.diagnosis;`,
	},
	{
		Name: "SQL statement for the edstays table",
		Text: `SELECT subject_id, intime FROM mimic_ed.edstays;`,
	},
	{
		Name: "SQL statement for the diabetes_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM diabetes_icd_codes;`,
	},
	{
		Name: "SQL statement for the heart_type_disease_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM heart_type_disease_icd_codes;`,
	},
	{
		Name: "SQL statement for the hemorrhagic_stroke_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM hemorrhagic_stroke_icd_codes;`,
	},
	{
		Name: "SQL statement for the hyperlipidemia_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM hyperlipidemia_icd_codes;`,
	},
	{
		Name: "SQL statement for the hypertension_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM hypertension_icd_codes;`,
	},
	{
		Name: "SQL statement for the ischemic_stroke_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM ischemic_stroke_icd_codes;`,
	},
	{
		Name: "SQL statement for the neurological_type_disease_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM neurological_type_disease_icd_codes;`,
	},
	{
		Name: "SQL statement for the psychosis_icd_codes table",
		Text: `SELECT icd_code, icd_version FROM psychosis_icd_codes;`,
	},
	{
		Name:     "Step 1",
		Subtitle: "Use NATURAL JOIN to combine hosp (diagnoses_icd, admissions).\n# Produces the complete hosp table (IDs not deduplicated).",
		Text: `DROP TABLE IF EXISTS temp_one;
CREATE TEMP TABLE temp_one AS
SELECT subject_id, DATE(admittime) AS admit_date, icd_code, icd_version
FROM mimiciv_hosp.diagnoses_icd
NATURAL JOIN mimiciv_hosp.admissions;
SELECT * FROM temp_one;`,
	},
	{
		Name:     "Step 2",
		Subtitle: "Use DISTINCT to filter out duplicate subject_id. # Save hosp's subject_id to temp_two (extract required IDs).",
		Text: `DROP TABLE IF EXISTS temp_two;
CREATE TEMP TABLE temp_two AS
SELECT DISTINCT subject_id
FROM temp_one;
SELECT * FROM temp_two;`,
	},
	{
		Name:     "Step 3",
		Subtitle: "Use NATURAL JOIN to combine ed (diagnosis, edstays). # Produces the complete ed table (IDs not deduplicated).",
		Text: `DROP TABLE IF EXISTS temp_three;
CREATE TEMP TABLE temp_three AS
SELECT subject_id, DATE(intime) AS admit_date, icd_code, icd_version
FROM mimic_ed.diagnosis
NATURAL JOIN mimic_ed.edstays;
SELECT * FROM temp_three;`,
	},
	{
		Name:     "Step 4",
		Subtitle: "Use subject_id from temp_two (hosp) as a query condition for temp_three (ed).\n# Find in ed those with the same subject_id as in hosp.",
		Text: `DROP TABLE IF EXISTS temp_four;
CREATE TABLE temp_four AS
SELECT * FROM temp_three
WHERE subject_id IN (SELECT subject_id FROM temp_two);
SELECT * FROM temp_four;`,
	},
	{
		Name:     "Step 5",
		Subtitle: "Use UNION ALL to merge temp_one (hosp) + temp_four (ed).\n# Produces the complete combined hosp + ed table (IDs not deduplicated).",
		Text: `DROP TABLE IF EXISTS temp_five;
CREATE TABLE temp_five AS
SELECT * FROM temp_one
UNION ALL
SELECT * FROM temp_four;
SELECT * FROM temp_five;`,
	},
	{
		Name:     "Step 6",
		Subtitle: "1.Use psychosis_icd_codes to query temp_five (case) for records of patients with psychosis.\n2.Use GROUP BY subject_id to group records, ensuring no duplicate subject_id.\n3.Use MIN(admit_date) to find the earliest admission date.",
		Text: `DROP TABLE IF EXISTS temp_six;
CREATE TABLE temp_six AS
SELECT subject_id, MIN(admit_date) AS index_date
FROM (
SELECT * FROM temp_five
WHERE (icd_version = 10
AND icd_code IN (SELECT icd_code FROM psychosis_icd_codes WHERE icd_version = 10))
OR (icd_version = 9
AND icd_code IN (SELECT icd_code FROM psychosis_icd_codes WHERE icd_version = 9))
) AS all_diagnoses
GROUP BY subject_id;
SELECT * FROM temp_six;`,
	},
	{
		Name:     "Step 7",
		Subtitle: "1.Use GROUP BY subject_id to group records, ensuring no duplicate subject_id.\n2.Use MIN(admit_date) to find the earliest admission date.\n3.Execute a DELETE FROM command to expunge all patient records related to psychiatric disorders.",
		Text: `DROP TABLE IF EXISTS temp_seven;
CREATE TABLE temp_seven AS
SELECT subject_id, MIN(admit_date) AS index_date
FROM temp_five
GROUP BY subject_id;
DELETE FROM temp_seven
WHERE subject_id IN (SELECT subject_id FROM temp_six);
DELETE FROM temp_seven
WHERE subject_id IN (
SELECT DISTINCT subject_id
FROM temp_five
WHERE (icd_version = 10
AND icd_code IN (
SELECT icd_code
FROM all_psychiatric_disorders_icd_codes
WHERE icd_version = 10))
OR (icd_version = 9
AND icd_code IN (
SELECT icd_code
FROM all_psychiatric_disorders_icd_codes
WHERE icd_version = 9)));
SELECT * FROM temp_seven;`,
	},
	{
		Name:     "Step 8",
		Subtitle: "1.Use SELECT *, 'TRUE' AS with_psychosis to add a with_psychosis column with value TRUE (for case group).\n2.Use SELECT *, 'FALSE' AS with_psychosis to add a with_psychosis column with value FALSE (for control group).\n3.Use UNION ALL to combine hosp + ed.",
		Text: `DROP TABLE IF EXISTS temp_eight;
CREATE TEMP TABLE temp_eight AS
SELECT *, 'TRUE' AS with_psychosis FROM temp_six
UNION ALL
SELECT *, 'FALSE' AS with_psychosis FROM temp_seven;
SELECT * FROM temp_eight;`,
	},
	{
		Name:     "Step 9",
		Subtitle: "1.Use GROUP BY subject_id to group records, ensuring no duplicate subject_id.\n2.Use MAX(admit_date) to find the last admission date.\n3.Use DELETE FROM to remove records where psychosis is TRUE\nand the earliest admission date equals the last admission date.",
		Text: `DROP TABLE IF EXISTS temp_nine;
CREATE TABLE temp_nine AS
SELECT subject_id, MAX(admit_date) AS last_date
FROM temp_five
GROUP BY subject_id;
DELETE FROM temp_eight
WHERE subject_id IN (
SELECT temp_eight.subject_id
FROM temp_eight
JOIN temp_nine 
ON temp_eight.subject_id = temp_nine.subject_id
WHERE temp_nine.last_date = temp_eight.index_date
AND temp_eight.with_psychosis = 'TRUE');
DROP TABLE IF EXISTS temp_nine;
CREATE TABLE temp_nine AS
SELECT * FROM temp_eight;
SELECT * FROM temp_nine;`,
	},
	{
		Name:     "Step 10",
		Subtitle: "1.Use ischemic_stroke_icd_codes to query temp_five (entire) for records of patients with ischemic stroke.\n2.Use GROUP BY subject_id to group records, ensuring no duplicate subject_id.\n3.Use MIN(admit_date) to find the earliest admission date.",
		Text: `DROP TABLE IF EXISTS temp_ten;
CREATE TABLE temp_ten AS
SELECT subject_id, MIN(admit_date) AS first_date_ischemic_stroke
FROM (
SELECT * FROM temp_five
WHERE (icd_version = 10
AND icd_code IN (SELECT icd_code FROM ischemic_stroke_icd_codes WHERE icd_version = 10))
OR (icd_version = 9
AND icd_code IN (SELECT icd_code FROM ischemic_stroke_icd_codes WHERE icd_version = 9))
) AS all_diagnoses_first_date_ischemic_stroke
GROUP BY subject_id;
SELECT * FROM temp_ten;`,
	},
	{
		Name:     "Step 11",
		Subtitle: "1.Create table temp_eleven by importing data from temp_nine using CREATE TABLE.\n2.Use DELETE FROM temp_nine to remove records where the earliest hospital admission date equals\nthe ischemic stroke earliest hospital admission date.",
		Text: `DROP TABLE IF EXISTS temp_eleven;
CREATE TABLE temp_eleven AS
SELECT * FROM temp_nine;
DELETE FROM temp_eleven
WHERE subject_id IN (
SELECT temp_eleven.subject_id
FROM temp_eleven
JOIN temp_ten 
ON temp_eleven.subject_id = temp_ten.subject_id
WHERE temp_ten.first_date_ischemic_stroke = temp_eleven.index_date);
SELECT * FROM temp_eleven;`,
	},
	{
		Name:     "Step 12",
		Subtitle: "1.Use the ID column from temp_eleven to fetch records from temp_ten with matching IDs\nand where the event date (first occurrence) is closest to the earliest admission date.\n2.Use LEFT JOIN to retain all records from temp_eleven; if there is no corresponding event_date, display as NULL.",
		Text: `DROP TABLE IF EXISTS temp_twelve;
CREATE TABLE temp_twelve AS
SELECT 
temp_eleven.subject_id,
temp_eleven.with_psychosis,
temp_eleven.index_date,
IS_after_index_date.first_date_ischemic_stroke AS event_date
FROM temp_eleven
LEFT JOIN (
SELECT 
temp_ten.subject_id, 
temp_ten.first_date_ischemic_stroke
FROM temp_ten
JOIN temp_eleven ON temp_ten.subject_id = temp_eleven.subject_id
WHERE temp_ten.first_date_ischemic_stroke > temp_eleven.index_date
) AS IS_after_index_date
ON temp_eleven.subject_id = IS_after_index_date.subject_id;
SELECT * FROM temp_twelve;`,
	},
	{
		Name:     "Step 13",
		Subtitle: "Check if the event_date column is NULL; if not NULL, set the new column E to TRUE, otherwise FALSE.",
		Text: `DROP TABLE IF EXISTS temp_thirteen;
CREATE TABLE temp_thirteen AS
SELECT *, CASE 
WHEN event_date IS NOT NULL THEN 'TRUE' 
ELSE 'FALSE' END AS "E"
FROM temp_twelve;
SELECT * FROM temp_thirteen;`,
	},
	{
		Name:     "Step 14",
		Subtitle: "1.For records in temp_thirteen where event_date is NULL, fill in with the patient's death date.\n2.Use UPDATE to change the event_date in temp_fourteen from NULL to the patients' death_date.",
		Text: `DROP TABLE IF EXISTS temp_fourteen;
CREATE TABLE temp_fourteen AS
SELECT * FROM temp_thirteen;
UPDATE temp_fourteen
SET event_date = patients_death_date.death_date
FROM (
SELECT 
mimiciv_hosp.patients.subject_id, 
DATE(mimiciv_hosp.patients.dod) AS death_date
FROM mimiciv_hosp.patients 
WHERE mimiciv_hosp.patients.dod IS NOT NULL
) patients_death_date
WHERE temp_fourteen.subject_id = patients_death_date.subject_id
AND temp_fourteen.event_date IS NULL;
SELECT * FROM temp_fourteen;`,
	},
	{
		Name:     "Step 15",
		Subtitle: "1.Create table temp_fifteen containing the latest admission year for each subject_id.\n2.Use UNION ALL to combine hosp + ed.\n3.Use GROUP BY subject_id to group records, ensuring no duplicate subject_id.",
		Text: `DROP TABLE IF EXISTS temp_fifteen;
CREATE TABLE temp_fifteen AS
SELECT 
subject_id, 
MAX(admit_year) AS admit_year
FROM (
SELECT subject_id, strftime('%Y', admittime) AS admit_year
FROM mimiciv_hosp.diagnoses_icd NATURAL JOIN mimiciv_hosp.admissions
UNION ALL
SELECT 
subject_id, 
strftime('%Y', intime) AS admit_year
FROM mimic_ed.diagnosis NATURAL JOIN mimic_ed.edstays
) AS all_diagnoses
GROUP BY subject_id;
SELECT * FROM temp_fifteen;`,
	},
	{
		Name:     "Step 16",
		Subtitle: "1.Create table temp_sixteen to read all records from temp_fourteen.\n2.Use UPDATE to set the event_date in temp_sixteen (where it is NULL) to last_year/12/31.",
		Text: `DROP TABLE IF EXISTS temp_sixteen;
CREATE TABLE temp_sixteen AS
SELECT * FROM temp_fourteen;
UPDATE temp_sixteen
SET event_date = (
SELECT date(temp_fifteen.admit_year || '-12-31')
FROM temp_fifteen
WHERE temp_fifteen.subject_id = temp_sixteen.subject_id)
WHERE event_date IS NULL;
SELECT * FROM temp_sixteen;`,
	},
	{
		Name:     "Step 17",
		Subtitle: "1.Create table temp_seventeen to read all records from temp_sixteen.\n2.Use a subquery to calculate gender (male = 1, female = 0) by matching subject_id.\n3.Use a subquery to calculate age (based on index_date) by matching subject_id.",
		Text: `DROP TABLE IF EXISTS temp_seventeen;
CREATE TABLE temp_seventeen AS
SELECT temp_sixteen.*, (SELECT CASE WHEN patients.gender = 'M' THEN 1 ELSE 0 END
FROM mimiciv_hosp.patients AS patients
WHERE patients.subject_id = temp_sixteen.subject_id) AS gender,
(SELECT (CAST(strftime('%Y', temp_sixteen.index_date) AS INTEGER) - (patients.anchor_year - patients.anchor_age))
FROM mimiciv_hosp.patients AS patients
WHERE patients.subject_id = temp_sixteen.subject_id) AS age
FROM temp_sixteen;
SELECT subject_id, gender, event_date, index_date, with_psychosis, "E", age
FROM temp_seventeen;`,
	},
	{
		Name:     "Step 18",
		Subtitle: "1.Create table temp_eighteen to read all records from temp_seventeen.\n2.Delete entire rows from the control group (with_psychosis = FALSE)\nthat do not have a matching gender and age in the case group (with_psychosis = TRUE).",
		Text: `DROP TABLE IF EXISTS temp_eighteen;
CREATE TABLE temp_eighteen AS
SELECT * FROM temp_seventeen;
DELETE FROM temp_eighteen
WHERE with_psychosis = FALSE
AND NOT EXISTS (
SELECT 1
FROM temp_eighteen temp_eighteen_case
WHERE with_psychosis = TRUE
AND temp_eighteen.gender = temp_eighteen_case.gender
AND temp_eighteen.age = temp_eighteen_case.age);
SELECT subject_id, gender, event_date, index_date, with_psychosis, "E", age 
FROM temp_eighteen;`,
	},
	{
		Name:     "Step 19",
		Subtitle: "1.Create table temp_nineteen to read all records from temp_eighteen.\n2.Use ALTER TABLE to modify the structure of the existing temp_nineteen table (add column T).\n3.Use UPDATE to update the T column in temp_nineteen.",
		Text: `DROP TABLE IF EXISTS temp_nineteen;
CREATE TABLE temp_nineteen AS
SELECT * FROM temp_eighteen;
ALTER TABLE temp_nineteen
ADD COLUMN "T" INTEGER;
UPDATE temp_nineteen
SET "T" = (event_date - index_date);
SELECT subject_id, gender, event_date, index_date, with_psychosis, "E", age, "T"
FROM temp_nineteen;`,
	},
	{
		Name:     "Step 20",
		Subtitle: "1.Create table temp_twenty to read all records from temp_nineteen.\n2.Use DELETE to remove records from temp_twenty where the T column is less than or equal to 0.",
		Text: `DROP TABLE IF EXISTS temp_twenty;
CREATE TABLE temp_twenty AS
SELECT subject_id, gender, event_date, index_date, with_psychosis, "E", age, "T"
FROM temp_nineteen;
DELETE FROM temp_twenty
WHERE T <= 0;
SELECT * FROM temp_twenty;`,
	},
	{
		Name:     "Step 21",
		Subtitle: "1.Create table temp_twenty_one to store the subject_id, icd_code, and icd_version columns from hosp + ED.\n2.Use UNION ALL to vertically merge the hosp and ED tables.",
		Text: `DROP TABLE IF EXISTS temp_twenty_one;
CREATE TABLE temp_twenty_one AS
SELECT subject_id, icd_code, icd_version
FROM mimiciv_hosp.diagnoses_icd
UNION ALL
SELECT subject_id, icd_code, icd_version
FROM mimic_ed.diagnosis;
SELECT * FROM temp_twenty_one;`,
	},
	{
		Name:     "Step 22",
		Subtitle: "1.Create table temp_twenty_two by reading from temp_twenty_one and performing a new SELECT query.\n2.Use the CASE statement to determine whether the patient has a specific disease\nand set the value to TRUE or FALSE based on the result.\n3.Use the COALESCE function to replace NULL values in disease counts with 0,\npreventing errors in subsequent calculations.\n4.Use the SUM function to add up the values returned by the CASE statement,\ncounting how many times each patient has been diagnosed with a specific disease.\n5.Use the CASE WHEN SUM(disease filtering condition) > 0 THEN TRUE ELSE FALSE\nstatement for classification, where a result greater than 0 will return TRUE, otherwise FALSE.\n6.Use GROUP BY subject_id to group records.\n7.Use LEFT JOIN to merge the records of each patient,\nensuring that even if there is no matching disease record, the patient’s data is retained.",
		Text: `DROP TABLE IF EXISTS temp_twenty_two;
CREATE TABLE temp_twenty_two AS
WITH t AS (
SELECT subject_id, icd_code, icd_version 
FROM temp_twenty_one),
h AS (
SELECT subject_id, CAST(COUNT(*) AS INTEGER) AS hypertension_times
FROM t
WHERE icd_code IN (SELECT icd_code FROM hypertension_icd_codes)
AND icd_version IN (9,10)
GROUP BY subject_id),
htd AS (
SELECT subject_id, CAST(COUNT(*) AS INTEGER) AS heart_type_disease_times
FROM t
WHERE icd_code IN (SELECT icd_code FROM heart_type_disease_icd_codes)
AND icd_version IN (9,10)
GROUP BY subject_id),
n AS (
SELECT subject_id, CAST(COUNT(*) AS INTEGER) AS neurological_type_disease_times
FROM t
WHERE icd_code IN (SELECT icd_code FROM neurological_type_disease_icd_codes)
AND icd_version IN (9,10)
GROUP BY subject_id),
d AS (
SELECT subject_id, CAST(COUNT(*) AS INTEGER) AS diabetes_times
FROM t
WHERE icd_code IN (SELECT icd_code FROM diabetes_icd_codes)
AND icd_version IN (9,10)
GROUP BY subject_id
),
l AS (
SELECT subject_id, CAST(COUNT(*) AS INTEGER) AS hyperlipidemia_times
FROM t
WHERE icd_code IN (SELECT icd_code FROM hyperlipidemia_icd_codes)
AND icd_version IN (9,10)
GROUP BY subject_id)
SELECT 
tt.subject_id,
COALESCE(h.hypertension_times,0) AS hypertension_times,
CASE WHEN COALESCE(h.hypertension_times,0) > 0 THEN 'TRUE' ELSE 'FALSE' END AS with_hypertension,
COALESCE(htd.heart_type_disease_times,0) AS heart_type_disease_times,
CASE WHEN COALESCE(htd.heart_type_disease_times,0) > 0 THEN 'TRUE' ELSE 'FALSE' END AS with_heart_type_disease,
COALESCE(n.neurological_type_disease_times,0) AS neurological_type_disease_times,
CASE WHEN COALESCE(n.neurological_type_disease_times,0) > 0 THEN 'TRUE' ELSE 'FALSE' END AS with_neurological_type_disease,
COALESCE(d.diabetes_times,0) AS diabetes_times,
CASE WHEN COALESCE(d.diabetes_times,0) > 0 THEN 'TRUE' ELSE 'FALSE' END AS with_diabetes,
COALESCE(l.hyperlipidemia_times,0) AS hyperlipidemia_times,
CASE WHEN COALESCE(l.hyperlipidemia_times,0) > 0 THEN 'TRUE' ELSE 'FALSE' END AS with_hyperlipidemia
FROM (SELECT subject_id FROM temp_twenty_one GROUP BY subject_id) tt
LEFT JOIN h  ON tt.subject_id = h.subject_id
LEFT JOIN htd ON tt.subject_id = htd.subject_id
LEFT JOIN n  ON tt.subject_id = n.subject_id
LEFT JOIN d  ON tt.subject_id = d.subject_id
LEFT JOIN l  ON tt.subject_id = l.subject_id;
SELECT * FROM temp_twenty_two;`,
	},
	{
		Name:     "Step 23",
		Subtitle: "1.Create table temp_twenty_three to store the merged data from temp_twenty and temp_twenty_two.\n2.Use LEFT JOIN to merge temp_twenty and temp_twenty_two based on subject_id.",
		Text: `DROP TABLE IF EXISTS temp_twenty_three;
CREATE TABLE temp_twenty_three AS
SELECT
temp_twenty.subject_id,
temp_twenty.gender,
temp_twenty.age,
temp_twenty.with_psychosis,
temp_twenty.index_date,
temp_twenty.event_date,
temp_twenty."T",
temp_twenty."E",
temp_twenty_two.with_hypertension,
temp_twenty_two.with_heart_type_disease,
temp_twenty_two.with_neurological_type_disease,
temp_twenty_two.with_diabetes,
temp_twenty_two.with_hyperlipidemia,
temp_twenty_two.hypertension_times,
temp_twenty_two.heart_type_disease_times,
temp_twenty_two.neurological_type_disease_times,
temp_twenty_two.diabetes_times,
temp_twenty_two.hyperlipidemia_times
FROM temp_twenty
LEFT JOIN temp_twenty_two
ON temp_twenty.subject_id = temp_twenty_two.subject_id;
SELECT * FROM temp_twenty_three;`,
	},
}
