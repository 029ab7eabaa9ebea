package service

import "cuerpofit_backend/internal/model"

func fptr(f float64) *float64 { return &f }

// ClarificationText is the pre-amble shown before the first question.
const ClarificationText = "Antes de empezar, necesitás saber que este cuestionario define si podemos trabajar juntos. " +
	"Respondé con total honestidad y reservá 10-12 minutos sin interrupciones. " +
	"Al finalizar vas a recibir un link directo a mi Whatsapp para enviarme el video de evaluación corporal y coordinar tu plan personalizado."

// DefaultQuestions returns the cuerpo-fit intake sequence. Option ids
// are part of the upstream contract: the mapper tables key on them, so
// renaming one here requires the matching table change.
func DefaultQuestions() []model.Question {
	return []model.Question{
		{
			ID:       "time_commitment",
			Title:    "¿Tenés realmente el tiempo en tu día para enfocarte en esto?",
			Category: "compromiso",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "time_yes", Text: "¡Sí! Tengo tiempo para entrenar y para mejorar mis comidas 💪🏼", Value: 2},
				{ID: "time_no", Text: "No tengo tiempo para esto, así que no contestaré este formulario", BlocksProgress: true},
			},
		},
		{
			ID:       "start_now",
			Title:    "¿Podés empezar hoy o mañana mismo tu cambio físico (entrenamiento, comidas, y demás) con mi ayuda, paso a paso?",
			Category: "compromiso",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "start_yes", Text: "Sí Ripo, puedo empezar hoy/mañana mismo 💪🏼", Value: 2},
				{ID: "start_no", Text: "No puedo empezar ni hoy ni mañana mismo, así que no contestaré este formulario todavía", BlocksProgress: true},
			},
		},
		{
			ID:       "injury",
			Title:    "¿Tenés HOY alguna lesión o limitación que te impida realizar ejercicio y no esté curada o tratada?",
			Category: "salud",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "injury_none", Text: "No, hoy no tengo nada que me impida hacer ejercicio 😉", Value: 3},
				{ID: "injury_yes", Text: "Sí tengo una lesión o limitación, así que contestaré este formulario cuando me recupere 💪🏼", BlocksProgress: true},
			},
		},
		{
			ID:            "health_conditions",
			Title:         "¿Tenés HOY alguna de estas condiciones?",
			Category:      "salud",
			Required:      true,
			Type:          model.QuestionMultiChoice,
			Clarification: "Seleccioná todas las que correspondan. Si completás \"Otro\", detallalo en la siguiente pregunta.",
			Answers: []model.AnswerOption{
				{ID: "cond_diabetes", Text: "Diabetes tipo 1 o 2"},
				{ID: "cond_hypo", Text: "Hipotiroidismo"},
				{ID: "cond_hyper", Text: "Hipertiroidismo"},
				{ID: "cond_hypertension", Text: "Hipertensión"},
				{ID: "cond_hypotension", Text: "Hipotensión"},
				{ID: "cond_litiasis", Text: "Litiasis Vesicular"},
				{ID: "cond_anemia", Text: "Anemia"},
				{ID: "cond_infection", Text: "Infección urinaria o de algún tipo"},
				{ID: "cond_none", Text: "No tengo ninguna 😉", Value: 3},
				{ID: "cond_other", Text: "Otro"},
			},
		},
		{
			ID:          "health_conditions_other_detail",
			Title:       "Otro (Condiciones actuales)",
			Category:    "salud",
			Type:        model.QuestionText,
			Placeholder: "Ej: Tengo asma leve controlada",
			DependsOn: []model.DependencyRule{
				{QuestionID: "health_conditions", AllowedAnswerIDs: []string{"cond_other"}},
			},
		},
		{
			ID:       "treatment",
			Title:    "Si tenés alguna condición de las anteriores, ¿estás con tratamiento?",
			Category: "salud",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "treatment_yes", Text: "Sí Ripo, estoy en tratamiento para recuperarme/mantenerme sano con mi condición ✅", Value: 2},
				{ID: "treatment_no", Text: "Todavía no, así que contestaré este formulario cuando esté recuperado/en tratamiento 💪🏼", BlocksProgress: true},
				{ID: "treatment_none", Text: "Ripo, te dije que no tengo ninguna condición. Dejame contestar el formulario en paz 😂", Value: 2},
			},
		},
		{
			ID:       "answers_confidence",
			Title:    "¿Estás seguro de que respondiste bien las anteriores preguntas?",
			Category: "compromiso",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "answers_confident", Text: "Sí Ripo, revisé y respondí todo muy bien 💪🏼", Value: 2},
				{ID: "answers_not_sure", Text: "No revisé, por lo que no voy a continuar este formulario", BlocksProgress: true},
			},
		},
		{
			ID:          "full_name",
			Title:       "¿Tu Nombre y tu Apellido?",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: Joaquin Ripoli",
			Validation:  &model.Validation{MinLength: 3, MaxLength: 120},
		},
		{
			ID:       "gender",
			Title:    "¿Género?",
			Category: "datos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "gender_male", Text: "Hombre", Value: 1},
				{ID: "gender_female", Text: "Mujer", Value: 1},
			},
		},
		{
			ID:          "age",
			Title:       "¿Cuántos años tenés?",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionNumber,
			Placeholder: "Sólo el número, ejemplo: 30",
			Validation:  &model.Validation{Min: fptr(14), Max: fptr(99), Step: fptr(1)},
		},
		{
			ID:          "height",
			Title:       "¿Cuánto medís en centímetros?",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionNumber,
			Placeholder: "Ejemplo: 178",
			HelperText:  "Ingresá sólo el número",
			Validation:  &model.Validation{Min: fptr(100), Max: fptr(250)},
		},
		{
			ID:          "weight",
			Title:       "¿Cuánto pesás en kilogramos?",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionNumber,
			Placeholder: "Ejemplo: 80.5",
			HelperText:  "Si no sabés, anotá el último peso que recuerdes.",
			Validation:  &model.Validation{Min: fptr(30), Max: fptr(400), Step: fptr(0.1)},
		},
		{
			ID:          "job",
			Title:       "¿De qué trabajás?",
			Category:    "contexto",
			Required:    true,
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: Trabajo como abogado en una oficina",
		},
		{
			ID:          "goal",
			Title:       "¿Qué querés conseguir y por qué lo estás buscando?",
			Category:    "contexto",
			Required:    true,
			Type:        model.QuestionTextarea,
			Placeholder: "Contame qué querés lograr y qué te motiva",
			Validation:  &model.Validation{MaxLength: 2000},
		},
		{
			ID:       "body_scale",
			Title:    "¿Tenés balanza o báscula digital para chequear tu peso corporal de forma diaria?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "body_scale_yes", Text: "Sí 😉", Value: 2},
				{ID: "body_scale_no", Text: "Todavía no"},
			},
		},
		{
			ID:       "food_scale",
			Title:    "¿Tenés balanza o báscula digital para pesar alimentos?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "food_scale_yes", Text: "Sí 😉", Value: 2},
				{ID: "food_scale_no", Text: "Todavía no"},
			},
		},
		{
			ID:       "spray_oil",
			Title:    "¿Tenés aceite en aerosol / fritolín?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "oil_yes", Text: "Sí 😉", Value: 2},
				{ID: "oil_no", Text: "Todavía no"},
			},
		},
		{
			ID:       "steps_app",
			Title:    "¿Tenés alguna app como \"Steps App\", \"Samsung Health\" o \"Salud\" para contar tus pasos diarios?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "steps_yes", Text: "Sí 😉", Value: 2},
				{ID: "steps_no", Text: "Todavía no"},
			},
		},
		{
			ID:       "junk_food",
			Title:    "¿Comés más de 4 veces por semana comida chatarra o no saludable?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "junk_yes", Text: "Sí 🙄"},
				{ID: "junk_no", Text: "No 😉", Value: 2},
			},
		},
		{
			ID:       "water",
			Title:    "¿Te sentís bien con la cantidad de agua que tomás por día?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "water_yes", Text: "Sí 😉", Value: 2},
				{ID: "water_no", Text: "No, siento que no tomo suficiente agua"},
			},
		},
		{
			ID:       "vices",
			Title:    "¿Tenés algún vicio actualmente? (Elegí todos los que te apliquen)",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionMultiChoice,
			Answers: []model.AnswerOption{
				{ID: string(model.AddictionWeed), Text: "Fumo marihuana"},
				{ID: string(model.AddictionCigarettes), Text: "Fumo cigarrillo"},
				{ID: string(model.AddictionAlcohol), Text: "Tomo bastante alcohol"},
				{ID: string(model.AddictionGambling), Text: "Tengo ludopatía (casino)"},
				{ID: string(model.AddictionVideogames), Text: "Juego bastante a los videojuegos"},
				{ID: string(model.AddictionSocial), Text: "Uso demasiado TikTok u otras apps para distraerme"},
				{ID: "vice_none", Text: "No tengo ningún vicio", Value: 3},
			},
		},
		{
			ID:          "vices_detail",
			Title:       "Contame un poco más sobre tu/s vicio/s",
			Category:    "habitos",
			Type:        model.QuestionTextarea,
			Placeholder: "Ej: Fumo desde hace 5 años, sobre todo los fines de semana",
			DependsOn:   []model.DependencyRule{viceSelectedRule()},
		},
		{
			ID:          "vices_amount",
			Title:       "¿Qué cantidad consumís por vez?",
			Category:    "habitos",
			Type:        model.QuestionNumber,
			Placeholder: "Sólo el número, ej: 2",
			Validation:  &model.Validation{Min: fptr(0), Max: fptr(1000)},
			DependsOn:   []model.DependencyRule{viceSelectedRule()},
		},
		{
			ID:        "vices_frequency",
			Title:     "¿Cada cuánto lo consumís?",
			Category:  "habitos",
			Type:      model.QuestionSingleChoice,
			DependsOn: []model.DependencyRule{viceSelectedRule()},
			Answers: []model.AnswerOption{
				{ID: string(model.FrequencyHour), Text: "Cada hora"},
				{ID: string(model.FrequencyDay), Text: "Por día"},
				{ID: string(model.FrequencyWeek), Text: "Por semana"},
				{ID: string(model.FrequencyMonth), Text: "Por mes"},
			},
		},
		{
			ID:       "other_health_conditions",
			Title:    "¿Tenés HOY alguna de estas otras condiciones?",
			Category: "salud",
			Required: true,
			Type:     model.QuestionMultiChoice,
			Answers: []model.AnswerOption{
				{ID: "cond_cholesterol", Text: "Colesterol o triglicéridos elevados"},
				{ID: "cond_gastritis", Text: "Gastritis o acidez"},
				{ID: "cond_constipation", Text: "Constipación/Estreñimiento o diarrea"},
				{ID: "cond_colon", Text: "Colon irritable"},
				{ID: "cond_none_other", Text: "No tengo ninguna", Value: 3},
				{ID: "cond_other_extra", Text: "Otro"},
			},
		},
		{
			ID:          "other_health_conditions_detail",
			Title:       "Otro (otras condiciones)",
			Category:    "salud",
			Type:        model.QuestionText,
			Placeholder: "Detallá cualquier otra condición",
			DependsOn: []model.DependencyRule{
				{QuestionID: "other_health_conditions", AllowedAnswerIDs: []string{"cond_other_extra"}},
			},
		},
		{
			ID:       "sleep_issues",
			Title:    "¿Qué problemas tenés para dormir? (Elegí todos los que apliquen)",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionMultiChoice,
			Answers: []model.AnswerOption{
				{ID: "sleep_bathroom", Text: "Me despierto a la madrugada para ir al baño"},
				{ID: "sleep_unknown", Text: "Me despierto y no sé por qué"},
				{ID: "sleep_fall_asleep", Text: "Tardo más de lo que me gustaría en dormirme"},
				{ID: "sleep_noise", Text: "Me despierto por ruidos, calor u otros factores"},
				{ID: "sleep_snore", Text: "Tengo ronquidos"},
				{ID: "sleep_none", Text: "No tengo problemas, duermo como un bebé 😴", Value: 3},
				{ID: "sleep_other", Text: "Otro"},
			},
		},
		{
			ID:          "sleep_other_detail",
			Title:       "Otro (problemas de sueño)",
			Category:    "habitos",
			Type:        model.QuestionText,
			Placeholder: "Describí cualquier otro problema para dormir",
			DependsOn: []model.DependencyRule{
				{QuestionID: "sleep_issues", AllowedAnswerIDs: []string{"sleep_other"}},
			},
		},
		{
			ID:       "wake_up_time",
			Title:    "¿Cuánto tardás en levantarte de la cama luego de despertarte?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "wake_immediate", Text: "Me levanto al instante", Value: 3},
				{ID: "wake_5", Text: "5 minutos", Value: 2},
				{ID: "wake_10", Text: "10 minutos", Value: 1},
				{ID: "wake_more", Text: "Más de 10 minutos"},
			},
		},
		{
			ID:       "screens_in_bed",
			Title:    "¿Ves pantallas (compu, televisión, celular) cuando te acostás en la cama?",
			Category: "habitos",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "screens_yes", Text: "Sí 😬"},
				{ID: "screens_no", Text: "No, uso la cama sólo para dormir 😴", Value: 3},
			},
		},
		{
			ID:       "training_days",
			Title:    "¿Cuántos días por semana estás dispuesto a entrenar SIN faltar? (Si no entrenás, elegí \"3\")",
			Category: "compromiso",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "train_3", Text: "3 días", Value: 1},
				{ID: "train_4", Text: "4 días", Value: 2},
				{ID: "train_5", Text: "5 días", Value: 3},
				{ID: "train_6", Text: "6 días", Value: 4},
			},
		},
		{
			ID:       "training_location",
			Title:    "¿Dónde vas a entrenar al principio?",
			Category: "contexto",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "train_gym", Text: "Gym", Value: 3},
				{ID: "train_home_none", Text: "Casa sin material", Value: 1},
				{ID: "train_home_weights", Text: "Casa con pesos libres", Value: 2},
				{ID: "train_home_multigym", Text: "Casa con Multigym", Value: 2},
			},
		},
		{
			ID:          "supplement",
			Title:       "¿Tomás o consumís algún suplemento o medicamento? Contame cuál/es.",
			Category:    "salud",
			Type:        model.QuestionTextarea,
			Placeholder: "Ej: Creatina, Omega 3, Ibuprofeno...",
		},
		{
			ID:        "supplement_unit",
			Title:     "Unidad de medida del suplemento/medicamento",
			Category:  "salud",
			Type:      model.QuestionSingleChoice,
			DependsOn: []model.DependencyRule{{QuestionID: "supplement", RequiresText: true}},
			Answers: []model.AnswerOption{
				{ID: string(model.UnitMg), Text: "mg"},
				{ID: string(model.UnitG), Text: "g"},
				{ID: string(model.UnitMl), Text: "ml"},
			},
		},
		{
			ID:          "supplement_amount",
			Title:       "¿Cuánta cantidad tomás en cada dosis?",
			Category:    "salud",
			Type:        model.QuestionNumber,
			Placeholder: "Ej: 5",
			HelperText:  "Ingresá sólo números. Ejemplo: 5",
			Validation:  &model.Validation{Min: fptr(0), Max: fptr(10000)},
			DependsOn:   []model.DependencyRule{{QuestionID: "supplement", RequiresText: true}},
		},
		{
			ID:        "supplement_frequency",
			Title:     "¿Con qué frecuencia lo tomás?",
			Category:  "salud",
			Type:      model.QuestionSingleChoice,
			DependsOn: []model.DependencyRule{{QuestionID: "supplement", RequiresText: true}},
			Answers: []model.AnswerOption{
				{ID: string(model.FrequencyHour), Text: "Cada hora"},
				{ID: string(model.FrequencyDay), Text: "Por día"},
				{ID: string(model.FrequencyWeek), Text: "Por semana"},
				{ID: string(model.FrequencyMonth), Text: "Por mes"},
			},
		},
		{
			ID:       "video_upload",
			Title:    "Subí tu video de 45 segundos imitando a Ripo",
			Category: "logistica",
			Required: true,
			Type:     model.QuestionFile,
			HelperText: "Formatos aceptados: MP4, MOV, MKV o WEBM. Peso máximo recomendado: 250 MB. " +
				"Te avisamos cuando termine de comprimir.",
			Accept:                 "video/*",
			MaxFiles:               1,
			EnableVideoCompression: true,
		},
		{
			ID:       "video_confirmation",
			Title:    "¿Grabaste el video de 45 segundos e imitaste a Ripo para que podamos armar tu plan según tu cuerpo?",
			Category: "logistica",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "video_whatsapp", Text: "No, pero hoy sin falta lo voy a enviar por Whatsapp 💪🏼", Value: 1, BlocksProgress: true},
				{ID: "video_uploaded", Text: "Sí Ripo, acabo de subir mi video en este mismo formulario 💪🏼", Value: 3},
				{ID: "video_not_recording", Text: "No me grabaré, entonces dejaré de contestar este formulario.", BlocksProgress: true},
			},
		},
		{
			ID:          "country",
			Title:       "País",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionSelect,
			Placeholder: "Ejemplo: Argentina",
		},
		{
			ID:          "city",
			Title:       "Ciudad",
			Category:    "datos",
			Required:    true,
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: Buenos Aires",
		},
		{
			ID:         "birthday",
			Title:      "¿Cuándo es tu próximo cumpleaños?",
			Category:   "datos",
			Required:   true,
			Type:       model.QuestionDate,
			Validation: &model.Validation{MinAge: 14, MaxAge: 99},
		},
		{
			ID:       "referral",
			Title:    "¿Cómo llegaste acá?",
			Category: "contexto",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "ref_tiktok", Text: "Me apareciste en TikTok", Value: 1},
				{ID: "ref_instagram", Text: "Te vi en Instagram", Value: 1},
				{ID: "ref_youtube", Text: "Te vi en YouTube", Value: 1},
				{ID: "ref_friend", Text: "Por un amigo/familiar (contame quién)", Value: 1},
				{ID: "ref_other", Text: "Otro", Value: 1},
			},
		},
		{
			ID:          "referral_detail",
			Title:       "Si fue por un amigo/familiar u \"Otro\", contame quién o cómo",
			Category:    "contexto",
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: Me recomendó Juan Perez",
			DependsOn: []model.DependencyRule{
				{QuestionID: "referral", AllowedAnswerIDs: []string{"ref_friend", "ref_other"}},
			},
		},
		{
			ID:          "email",
			Title:       "¿Cuál es tu email?",
			Category:    "contacto",
			Required:    true,
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: juan@email.com",
			HelperText:  "Usá el mail que revisás todos los días.",
			Validation:  &model.Validation{Pattern: `^[^\s@]+@[^\s@]+\.[^\s@]+$`},
		},
		{
			ID:          "instagram",
			Title:       "¿Cuál es tu usuario de Instagram?",
			Category:    "contacto",
			Required:    true,
			Type:        model.QuestionText,
			Placeholder: "Ejemplo: @joa.ripoli",
			Validation:  &model.Validation{MaxLength: 60},
		},
		{
			ID:       "whatsapp",
			Title:    "¿Cuál es tu número de Whatsapp?",
			Category: "contacto",
			Required: true,
			Type:     model.QuestionPhone,
			SubFields: []model.SubField{
				{ID: "country_code", Label: "Código de país", Placeholder: "Ejemplo: 54", Pattern: `^\d{1,3}$`},
				{ID: "number", Label: "Número local", Placeholder: "Ejemplo: 1122334455", Pattern: `^\d{6,12}$`},
			},
			HelperText: "Sólo números, sin espacios ni prefijos.",
		},
		{
			ID:       "whatsapp_confirmation",
			Title:    "¿Estás seguro que escribiste bien tu número de Whatsapp?",
			Category: "contacto",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "whatsapp_ok", Text: "Sí Ripo, recién lo revisé y lo escribí perfecto 💪🏼", Value: 2},
				{ID: "whatsapp_other", Text: "Otro", Value: 1},
			},
		},
		{
			ID:          "whatsapp_other_detail",
			Title:       "Otro (Whatsapp)",
			Category:    "contacto",
			Type:        model.QuestionText,
			Placeholder: "Aclará cualquier detalle extra para contactarte",
			DependsOn: []model.DependencyRule{
				{QuestionID: "whatsapp_confirmation", AllowedAnswerIDs: []string{"whatsapp_other"}},
			},
		},
		{
			ID:          "final_message",
			Title:       "Por último: ¿Algo que quieras comentarme antes de armar tu plan?",
			Category:    "contexto",
			Type:        model.QuestionTextarea,
			Placeholder: "Si no hay nada, podés dejarlo vacío",
			Validation:  &model.Validation{MaxLength: 2000},
		},
		{
			ID:       "start_commitment",
			Title:    "Luego de tocar \"ENVIAR\" tendrás que entrar al link que aparece para ir a mi Whatsapp. ¿Vas a entrar al link para empezar tu cambio físico?",
			Category: "compromiso",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "start_link_yes", Text: "Sí Ripo, estaré atento a la siguiente pantalla para entrar y empezar mi cambio 💪🏼", Value: 3},
				{ID: "start_link_no", Text: "No le prestaré atención a la siguiente pantalla, por lo que no empezaré mi cambio físico.", BlocksProgress: true},
			},
		},
	}
}

func viceSelectedRule() model.DependencyRule {
	return model.DependencyRule{
		QuestionID: "vices",
		AllowedAnswerIDs: []string{
			string(model.AddictionWeed),
			string(model.AddictionCigarettes),
			string(model.AddictionAlcohol),
			string(model.AddictionGambling),
			string(model.AddictionVideogames),
			string(model.AddictionSocial),
		},
	}
}
