package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/util"
)

// Mapping tables from question option ids to the upstream CRM
// vocabulary. Ids handled by special-case logic (none/other options,
// detail text fold-ins) live in the exception sets below so the startup
// completeness check can tell "deliberately unmapped" from "forgotten".

var treatmentByOption = map[string]model.TreatmentCondition{
	"cond_diabetes":     model.TreatmentDiabetes,
	"cond_hypo":         model.TreatmentHypothyroidism,
	"cond_hyper":        model.TreatmentHyperthyroidism,
	"cond_hypertension": model.TreatmentHypertension,
	"cond_hypotension":  model.TreatmentHypotension,
	"cond_litiasis":     model.TreatmentGallstones,
	"cond_anemia":       model.TreatmentAnemia,
	"cond_infection":    model.TreatmentInfection,
	"cond_none":         model.TreatmentNone,
}

var conditionByOption = map[string]model.Condition{
	"cond_cholesterol":  model.ConditionCholesterol,
	"cond_gastritis":    model.ConditionGastritis,
	"cond_constipation": model.ConditionConstipation,
	"cond_colon":        model.ConditionIrritable,
}

var sleepByOption = map[string]model.SleepProblem{
	"sleep_bathroom":    model.SleepWakeUpToPee,
	"sleep_unknown":     model.SleepWakeUpNoReason,
	"sleep_fall_asleep": model.SleepDifficultyAsleep,
	"sleep_noise":       model.SleepWakeUpMultiple,
	"sleep_snore":       model.SleepSnoring,
}

var wakeUpByOption = map[string]model.WakeUpDelay{
	"wake_immediate": model.WakeUpInstantly,
	"wake_5":         model.WakeUpFiveMin,
	"wake_10":        model.WakeUpTenMin,
	"wake_more":      model.WakeUpMoreThanTen,
}

var trainingLocationByOption = map[string]model.TrainingLocation{
	"train_gym":           model.TrainGym,
	"train_home_none":     model.TrainHomeNoGear,
	"train_home_weights":  model.TrainHomeWeights,
	"train_home_multigym": model.TrainHomeMultiGym,
}

var workoutConsistencyByOption = map[string]int{
	"train_3": 3,
	"train_4": 4,
	"train_5": 5,
	"train_6": 6,
}

var referralByOption = map[string]string{
	"ref_tiktok":    "TikTok",
	"ref_instagram": "Instagram",
	"ref_youtube":   "YouTube",
	"ref_friend":    "Recomendado",
	"ref_other":     "Otro",
}

var videoPreferenceByOption = map[string]model.UserRecordVideo{
	"video_whatsapp":      model.RecordVideoWhatsapp,
	"video_uploaded":      model.RecordVideoForm,
	"video_not_recording": model.RecordVideoNo,
}

// Option ids the mapper handles outside the tables.
var mapperExceptions = map[string]map[string]bool{
	"health_conditions":       {"cond_other": true},
	"other_health_conditions": {"cond_none_other": true, "cond_other_extra": true},
	"sleep_issues":            {"sleep_none": true, "sleep_other": true},
	"vices":                   {"vice_none": true},
	"gender":                  {"gender_male": true, "gender_female": true},
}

// ValidateMappings checks every option of the mapping-driven questions
// against its table at startup, so a renamed or added option id fails
// fast instead of silently dropping data.
func ValidateMappings(questions []model.Question) error {
	tables := map[string]func(id string) bool{
		"health_conditions":       func(id string) bool { _, ok := treatmentByOption[id]; return ok },
		"other_health_conditions": func(id string) bool { _, ok := conditionByOption[id]; return ok },
		"sleep_issues":            func(id string) bool { _, ok := sleepByOption[id]; return ok },
		"wake_up_time":            func(id string) bool { _, ok := wakeUpByOption[id]; return ok },
		"training_location":       func(id string) bool { _, ok := trainingLocationByOption[id]; return ok },
		"training_days":           func(id string) bool { _, ok := workoutConsistencyByOption[id]; return ok },
		"referral":                func(id string) bool { _, ok := referralByOption[id]; return ok },
		"video_confirmation":      func(id string) bool { _, ok := videoPreferenceByOption[id]; return ok },
		"vices":                   func(id string) bool { return isKnownAddiction(id) },
		"gender":                  func(id string) bool { return false },
	}

	for _, q := range questions {
		mapped, covered := tables[q.ID]
		if !covered {
			continue
		}
		exceptions := mapperExceptions[q.ID]
		for _, option := range q.Answers {
			if mapped(option.ID) || exceptions[option.ID] {
				continue
			}
			return fmt.Errorf("question %q option %q has no upstream mapping", q.ID, option.ID)
		}
	}
	return nil
}

func isKnownAddiction(id string) bool {
	switch model.Addiction(id) {
	case model.AddictionWeed, model.AddictionCigarettes, model.AddictionAlcohol,
		model.AddictionGambling, model.AddictionVideogames, model.AddictionSocial:
		return true
	}
	return false
}

// --- answer accessors over the serialized result ---

func entries(result *model.Result, questionID string) []model.ResultEntry {
	return result.Answers[questionID]
}

func singleChoiceID(result *model.Result, questionID string) string {
	e := entries(result, questionID)
	if len(e) == 0 {
		return ""
	}
	return e[0].ID
}

func textAnswer(result *model.Result, questionID string) string {
	e := entries(result, questionID)
	if len(e) == 0 {
		return ""
	}
	return strings.TrimSpace(e[0].Value)
}

func subFieldAnswer(result *model.Result, questionID, subFieldID string) string {
	for _, entry := range entries(result, questionID) {
		if entry.SubFieldID == subFieldID {
			return strings.TrimSpace(entry.Value)
		}
	}
	return ""
}

func numberAnswer(result *model.Result, questionID string) *float64 {
	text := textAnswer(result, questionID)
	if text == "" {
		return nil
	}
	parsed, err := parseDecimal(text)
	if err != nil {
		return nil
	}
	return &parsed
}

func dateAnswer(result *model.Result, questionID string) time.Time {
	text := textAnswer(result, questionID)
	if text != "" {
		if parsed, err := parseDate(text); err == nil {
			return parsed
		}
	}
	return time.Now()
}

func multiChoiceIDs(result *model.Result, questionID string) []string {
	e := entries(result, questionID)
	ids := make([]string, 0, len(e))
	for _, entry := range e {
		if len(entry.Values) > 0 {
			ids = append(ids, entry.Values...)
			continue
		}
		if entry.ID != "" {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

func fileAnswer(result *model.Result, questionID string) *model.FileRef {
	for _, entry := range entries(result, questionID) {
		if entry.File != nil {
			return entry.File
		}
	}
	return nil
}

func contains(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

// --- field mappers ---

func mapSexo(genderID string) model.Sexo {
	if genderID == "gender_female" {
		return model.SexoFemale
	}
	return model.SexoMale
}

func yesAnswered(result *model.Result, questionID, yesID string) bool {
	return strings.EqualFold(singleChoiceID(result, questionID), yesID)
}

func mapTreatmentConditions(result *model.Result) []string {
	selections := multiChoiceIDs(result, "health_conditions")
	if len(selections) == 0 {
		return nil
	}
	if contains(selections, "cond_none") {
		return []string{string(model.TreatmentNone)}
	}

	var mapped []string
	for _, id := range selections {
		if value, ok := treatmentByOption[id]; ok {
			mapped = append(mapped, string(value))
		}
	}
	if contains(selections, "cond_other") {
		detail := textAnswer(result, "health_conditions_other_detail")
		if detail == "" {
			detail = "Otro"
		}
		mapped = append(mapped, detail)
	}
	return mapped
}

func mapCondition(result *model.Result) string {
	selections := multiChoiceIDs(result, "other_health_conditions")
	if len(selections) == 0 || contains(selections, "cond_none_other") {
		return ""
	}
	for _, id := range selections {
		if value, ok := conditionByOption[id]; ok {
			return string(value)
		}
	}
	if contains(selections, "cond_other_extra") {
		return textAnswer(result, "other_health_conditions_detail")
	}
	return ""
}

func mapSleepProblems(result *model.Result) []string {
	selections := multiChoiceIDs(result, "sleep_issues")
	if len(selections) == 0 || contains(selections, "sleep_none") {
		return nil
	}

	var mapped []string
	for _, id := range selections {
		if value, ok := sleepByOption[id]; ok {
			mapped = append(mapped, string(value))
		}
	}
	if contains(selections, "sleep_other") {
		detail := textAnswer(result, "sleep_other_detail")
		if detail == "" {
			detail = "Otro"
		}
		mapped = append(mapped, detail)
	}
	return mapped
}

type addictionFields struct {
	addiction string
	amount    *float64
	frequency model.Frequency
	detail    string
}

func mapAddiction(result *model.Result) addictionFields {
	fields := addictionFields{detail: textAnswer(result, "vices_detail")}
	selections := multiChoiceIDs(result, "vices")
	if len(selections) == 0 || contains(selections, "vice_none") {
		return fields
	}

	var mapped []string
	for _, id := range selections {
		if isKnownAddiction(id) {
			mapped = append(mapped, id)
		}
	}
	switch {
	case len(mapped) >= 1:
		fields.addiction = strings.Join(mapped, ", ")
	case fields.detail != "":
		fields.addiction = fields.detail
	default:
		fields.addiction = strings.Join(selections, ", ")
	}

	fields.amount = numberAnswer(result, "vices_amount")
	fields.frequency = model.Frequency(singleChoiceID(result, "vices_frequency"))
	return fields
}

func mapReferral(result *model.Result) string {
	label := referralByOption[singleChoiceID(result, "referral")]
	detail := textAnswer(result, "referral_detail")
	switch {
	case label == "" && detail == "":
		return "No especificado"
	case detail == "":
		return label
	case label == "":
		return detail
	default:
		return label + " - " + detail
	}
}

func buildPhone(result *model.Result) model.PhoneDto {
	countryCode := util.DigitsOnly(subFieldAnswer(result, "whatsapp", "country_code"))
	number := util.DigitsOnly(subFieldAnswer(result, "whatsapp", "number"))
	if countryCode == "" {
		countryCode = "00"
	}
	if number == "" {
		number = "0000000"
	}
	return model.PhoneDto{
		CountryCode: countryCode,
		Number:      number,
		FullNumber:  "+" + countryCode + number,
	}
}

func normalizeInstagram(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "@") {
		return trimmed
	}
	return "@" + trimmed
}

// MapResultToForm flattens a serialized questionnaire result into the
// upstream form DTO plus the video file, mirroring the CRM contract.
func MapResultToForm(result *model.Result) (*model.FormCuerpoFit, *model.FileRef, error) {
	if result.VerificationKey == "" {
		return nil, nil, errors.New(msgVerification)
	}

	fullName := textAnswer(result, "full_name")
	parts := strings.Fields(fullName)
	name := "Sin nombre"
	lastName := "Pendiente"
	if len(parts) > 0 {
		name = parts[0]
	}
	if len(parts) > 1 {
		lastName = strings.Join(parts[1:], " ")
	}

	goal := textAnswer(result, "goal")
	if goal == "" {
		goal = "No definido"
	}

	addiction := mapAddiction(result)

	notes := buildNotes(result, addiction.detail)

	work := textAnswer(result, "job")
	if work == "" {
		work = "No informado"
	}
	country := textAnswer(result, "country")
	if country == "" {
		country = "No informado"
	}
	city := textAnswer(result, "city")
	if city == "" {
		city = "No informado"
	}

	dto := &model.FormCuerpoFit{
		Email:                        textAnswer(result, "email"),
		Name:                         name,
		LastName:                     lastName,
		Sex:                          mapSexo(singleChoiceID(result, "gender")),
		Dob:                          dateAnswer(result, "birthday"),
		Work:                         work,
		Goal:                         goal,
		WhyGoal:                      goal,
		WeighingScale:                yesAnswered(result, "body_scale", "body_scale_yes"),
		FoodScale:                    yesAnswered(result, "food_scale", "food_scale_yes"),
		CookingSpray:                 yesAnswered(result, "spray_oil", "oil_yes"),
		StepCountingApp:              yesAnswered(result, "steps_app", "steps_yes"),
		EatsJunkFoodMoreThan4PerWeek: yesAnswered(result, "junk_food", "junk_yes"),
		DrinkEnoughWaterPerDay:       yesAnswered(result, "water", "water_yes"),
		Addiction:                    addiction.addiction,
		AddictionAmount:              addiction.amount,
		AddictionFrequency:           addiction.frequency,
		RequireTreatmentCondition:    mapTreatmentConditions(result),
		Condition:                    mapCondition(result),
		SleepProblem:                 mapSleepProblems(result),
		GetUpTime:                    wakeUpByOption[singleChoiceID(result, "wake_up_time")],
		ScreenBeforeSleep:            yesAnswered(result, "screens_in_bed", "screens_yes"),
		WorkoutConsistency:           workoutConsistency(result),
		PlaceToWorkOut:               trainingLocation(result),
		Supplement:                   textAnswer(result, "supplement"),
		SupplementUnit:               model.SupplementUnit(singleChoiceID(result, "supplement_unit")),
		SupplementHowMany:            numberAnswer(result, "supplement_amount"),
		SupplementHowOften:           model.Frequency(singleChoiceID(result, "supplement_frequency")),
		UserRecordVideo:              videoPreference(result),
		Country:                      country,
		City:                         city,
		HowDidUserEndUpHere:          mapReferral(result),
		InstagramUser:                normalizeInstagram(textAnswer(result, "instagram")),
		Phone:                        buildPhone(result),
		LastComment:                  notes,
		VerificationKey:              result.VerificationKey,
	}
	if height := numberAnswer(result, "height"); height != nil {
		dto.Height = *height
	}
	if weight := numberAnswer(result, "weight"); weight != nil {
		dto.Weight = *weight
	}

	return dto, fileAnswer(result, "video_upload"), nil
}

func workoutConsistency(result *model.Result) int {
	if days, ok := workoutConsistencyByOption[singleChoiceID(result, "training_days")]; ok {
		return days
	}
	return 3
}

func trainingLocation(result *model.Result) model.TrainingLocation {
	if loc, ok := trainingLocationByOption[singleChoiceID(result, "training_location")]; ok {
		return loc
	}
	return model.TrainGym
}

func videoPreference(result *model.Result) model.UserRecordVideo {
	if pref, ok := videoPreferenceByOption[singleChoiceID(result, "video_confirmation")]; ok {
		return pref
	}
	return model.RecordVideoNo
}

// buildNotes folds the free-text detail answers into one comment,
// capped at 1000 characters.
func buildNotes(result *model.Result, addictionDetail string) string {
	sections := []string{textAnswer(result, "final_message")}
	if addictionDetail != "" {
		sections = append(sections, "Vicios: "+addictionDetail)
	}
	if detail := textAnswer(result, "health_conditions_other_detail"); detail != "" {
		sections = append(sections, "Condiciones tratadas: "+detail)
	}
	if detail := textAnswer(result, "other_health_conditions_detail"); detail != "" {
		sections = append(sections, "Otras condiciones: "+detail)
	}
	if detail := textAnswer(result, "whatsapp_other_detail"); detail != "" {
		sections = append(sections, "Whatsapp extra: "+detail)
	}

	var parts []string
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	notes := strings.Join(parts, "\n\n")
	if len(notes) > 1000 {
		// The upstream column holds 1000 bytes; cut on a rune boundary
		// so accented text is never left with a mangled tail.
		cut := 1000
		for cut > 0 && !utf8.RuneStart(notes[cut]) {
			cut--
		}
		notes = notes[:cut]
	}
	return notes
}
