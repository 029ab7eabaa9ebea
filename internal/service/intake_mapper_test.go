package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cuerpofit_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(answers map[string][]model.ResultEntry) *model.Result {
	return &model.Result{
		Answers:         answers,
		CompletedAt:     time.Now(),
		VerificationKey: "vk-test",
	}
}

func single(id string) []model.ResultEntry {
	return []model.ResultEntry{{ID: id}}
}

func text(value string) []model.ResultEntry {
	return []model.ResultEntry{{ID: "q", Value: value}}
}

func TestMapResultToFormRejectsMissingVerification(t *testing.T) {
	result := resultWith(nil)
	result.VerificationKey = ""
	_, _, err := MapResultToForm(result)
	require.Error(t, err)
	assert.Equal(t, msgVerification, err.Error())
}

func TestMapResultToFormDefaults(t *testing.T) {
	dto, video, err := MapResultToForm(resultWith(map[string][]model.ResultEntry{}))
	require.NoError(t, err)
	assert.Nil(t, video)

	assert.Equal(t, "Sin nombre", dto.Name)
	assert.Equal(t, "Pendiente", dto.LastName)
	assert.Equal(t, "No definido", dto.Goal)
	assert.Equal(t, "No informado", dto.Work)
	assert.Equal(t, "No informado", dto.Country)
	assert.Equal(t, "No informado", dto.City)
	assert.Equal(t, "No especificado", dto.HowDidUserEndUpHere)
	assert.Equal(t, "00", dto.Phone.CountryCode)
	assert.Equal(t, "0000000", dto.Phone.Number)
	assert.Equal(t, "+000000000", dto.Phone.FullNumber)
	assert.Equal(t, 3, dto.WorkoutConsistency)
	assert.Equal(t, model.TrainGym, dto.PlaceToWorkOut)
	assert.Equal(t, model.RecordVideoNo, dto.UserRecordVideo)
	assert.Equal(t, "vk-test", dto.VerificationKey)
}

func TestMapResultToFormFullProfile(t *testing.T) {
	dto, _, err := MapResultToForm(resultWith(map[string][]model.ResultEntry{
		"full_name":          text("Ana María Pérez"),
		"gender":             single("gender_female"),
		"email":              text("ana@example.com"),
		"goal":               text("Bajar 10 kg"),
		"job":                text("Contadora"),
		"height":             text("165"),
		"weight":             text("72,5"),
		"body_scale":         single("body_scale_yes"),
		"food_scale":         single("food_scale_no"),
		"training_days":      single("train_5"),
		"training_location":  single("train_home_weights"),
		"wake_up_time":       single("wake_10"),
		"screens_in_bed":     single("screens_yes"),
		"video_confirmation": single("video_uploaded"),
		"referral":           single("ref_tiktok"),
		"instagram":          text("ana.fit"),
		"country":            text("Argentina"),
		"city":               text("Córdoba"),
		"whatsapp": {
			{ID: "whatsapp", SubFieldID: "country_code", Value: "54"},
			{ID: "whatsapp", SubFieldID: "number", Value: "11 5587-3035"},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, "Ana", dto.Name)
	assert.Equal(t, "María Pérez", dto.LastName)
	assert.Equal(t, model.SexoFemale, dto.Sex)
	assert.Equal(t, 165.0, dto.Height)
	assert.Equal(t, 72.5, dto.Weight)
	assert.True(t, dto.WeighingScale)
	assert.False(t, dto.FoodScale)
	assert.Equal(t, 5, dto.WorkoutConsistency)
	assert.Equal(t, model.TrainHomeWeights, dto.PlaceToWorkOut)
	assert.Equal(t, model.WakeUpTenMin, dto.GetUpTime)
	assert.True(t, dto.ScreenBeforeSleep)
	assert.Equal(t, model.RecordVideoForm, dto.UserRecordVideo)
	assert.Equal(t, "TikTok", dto.HowDidUserEndUpHere)
	assert.Equal(t, "@ana.fit", dto.InstagramUser)
	assert.Equal(t, "54", dto.Phone.CountryCode)
	assert.Equal(t, "1155873035", dto.Phone.Number)
	assert.Equal(t, "+541155873035", dto.Phone.FullNumber)
}

func TestMapTreatmentConditions(t *testing.T) {
	result := resultWith(map[string][]model.ResultEntry{
		"health_conditions": {{Values: []string{"cond_diabetes", "cond_anemia"}}},
	})
	assert.Equal(t, []string{
		string(model.TreatmentDiabetes),
		string(model.TreatmentAnemia),
	}, mapTreatmentConditions(result))

	// "None" wins over everything else selected.
	result = resultWith(map[string][]model.ResultEntry{
		"health_conditions": {{Values: []string{"cond_diabetes", "cond_none"}}},
	})
	assert.Equal(t, []string{string(model.TreatmentNone)}, mapTreatmentConditions(result))

	// "Other" folds the detail text in, defaulting to "Otro".
	result = resultWith(map[string][]model.ResultEntry{
		"health_conditions": {{Values: []string{"cond_other"}}},
	})
	assert.Equal(t, []string{"Otro"}, mapTreatmentConditions(result))

	result = resultWith(map[string][]model.ResultEntry{
		"health_conditions":              {{Values: []string{"cond_other"}}},
		"health_conditions_other_detail": text("tiroiditis"),
	})
	assert.Equal(t, []string{"tiroiditis"}, mapTreatmentConditions(result))
}

func TestMapSleepProblems(t *testing.T) {
	result := resultWith(map[string][]model.ResultEntry{
		"sleep_issues": {{Values: []string{"sleep_snore", "sleep_none"}}},
	})
	assert.Nil(t, mapSleepProblems(result))

	result = resultWith(map[string][]model.ResultEntry{
		"sleep_issues":       {{Values: []string{"sleep_bathroom", "sleep_other"}}},
		"sleep_other_detail": text("pesadillas"),
	})
	assert.Equal(t, []string{string(model.SleepWakeUpToPee), "pesadillas"}, mapSleepProblems(result))
}

func TestMapAddiction(t *testing.T) {
	result := resultWith(map[string][]model.ResultEntry{
		"vices":           {{Values: []string{string(model.AddictionCigarettes), string(model.AddictionAlcohol)}}},
		"vices_amount":    text("5"),
		"vices_frequency": single("daily"),
	})
	fields := mapAddiction(result)
	assert.Equal(t, string(model.AddictionCigarettes)+", "+string(model.AddictionAlcohol), fields.addiction)
	require.NotNil(t, fields.amount)
	assert.Equal(t, 5.0, *fields.amount)
	assert.Equal(t, model.Frequency("daily"), fields.frequency)

	// "None" clears the whole block.
	result = resultWith(map[string][]model.ResultEntry{
		"vices": {{Values: []string{"vice_none"}}},
	})
	fields = mapAddiction(result)
	assert.Empty(t, fields.addiction)
	assert.Nil(t, fields.amount)
}

func TestMapReferral(t *testing.T) {
	result := resultWith(map[string][]model.ResultEntry{
		"referral":        single("ref_friend"),
		"referral_detail": text("mi prima"),
	})
	assert.Equal(t, "Recomendado - mi prima", mapReferral(result))

	result = resultWith(map[string][]model.ResultEntry{"referral": single("ref_youtube")})
	assert.Equal(t, "YouTube", mapReferral(result))
}

func TestNormalizeInstagram(t *testing.T) {
	assert.Equal(t, "", normalizeInstagram("   "))
	assert.Equal(t, "@ana", normalizeInstagram("ana"))
	assert.Equal(t, "@ana", normalizeInstagram("@ana"))
}

func TestBuildNotesSectionsAndCap(t *testing.T) {
	result := resultWith(map[string][]model.ResultEntry{
		"final_message":                  text("Quiero empezar ya."),
		"health_conditions_other_detail": text("tiroiditis"),
		"whatsapp_other_detail":          text("solo llamadas"),
	})
	notes := buildNotes(result, "fumo poco")
	assert.Equal(t, "Quiero empezar ya.\n\nVicios: fumo poco\n\nCondiciones tratadas: tiroiditis\n\nWhatsapp extra: solo llamadas", notes)

	long := resultWith(map[string][]model.ResultEntry{
		"final_message": text(strings.Repeat("a", 1500)),
	})
	assert.Len(t, buildNotes(long, ""), 1000)
}

func TestBuildNotesCapKeepsRunesIntact(t *testing.T) {
	// One ASCII byte followed by two-byte runes puts byte 1000 in the
	// middle of a rune; a plain byte cut there leaves a broken tail.
	long := resultWith(map[string][]model.ResultEntry{
		"final_message": text("x" + strings.Repeat("ñ", 600)),
	})
	notes := buildNotes(long, "")
	assert.True(t, utf8.ValidString(notes))
	assert.Equal(t, 999, len(notes))
}

func TestValidateMappingsCatchesUnmappedOption(t *testing.T) {
	questions := []model.Question{{
		ID:   "referral",
		Type: model.QuestionSingleChoice,
		Answers: []model.AnswerOption{
			{ID: "ref_tiktok"},
			{ID: "ref_billboard"},
		},
	}}
	err := ValidateMappings(questions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ref_billboard")
}

func TestMapResultToFormAttachesVideo(t *testing.T) {
	ref := &model.FileRef{Name: "clip-compressed.mp4", Size: 512, Path: "/tmp/clip-compressed.mp4"}
	_, video, err := MapResultToForm(resultWith(map[string][]model.ResultEntry{
		"video_upload": {{ID: "clip-compressed.mp4", File: ref, Value: "clip-compressed.mp4"}},
	}))
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, "clip-compressed.mp4", video.Name)
}
