package model

import (
	"encoding/json"
	"time"
)

// Domain vocabulary of the upstream CRM. The string values are the wire
// values the cuerpo-fit endpoint expects, so they stay in Spanish.

type Sexo string

const (
	SexoMale   Sexo = "hombre"
	SexoFemale Sexo = "mujer"
)

type UserRecordVideo string

const (
	RecordVideoWhatsapp UserRecordVideo = "whatsapp"
	RecordVideoForm     UserRecordVideo = "form"
	RecordVideoNo       UserRecordVideo = "no"
)

type Condition string

const (
	ConditionCholesterol  Condition = "colesterolOTrigliceridos"
	ConditionGastritis    Condition = "gastritisOAcidez"
	ConditionConstipation Condition = "estrenimientoODiarrea"
	ConditionIrritable    Condition = "colonIrritable"
)

type TreatmentCondition string

const (
	TreatmentDiabetes        TreatmentCondition = "diabetesTipo1o2"
	TreatmentHypothyroidism  TreatmentCondition = "hipotiroidismo"
	TreatmentHyperthyroidism TreatmentCondition = "hipertiroidismo"
	TreatmentHypertension    TreatmentCondition = "hipertension"
	TreatmentHypotension     TreatmentCondition = "hipotension"
	TreatmentGallstones      TreatmentCondition = "calculosVesiculares"
	TreatmentAnemia          TreatmentCondition = "anemia"
	TreatmentInfection       TreatmentCondition = "infeccion"
	TreatmentNone            TreatmentCondition = "ninguna"
)

type SleepProblem string

const (
	SleepWakeUpToPee      SleepProblem = "despertarParaOrinar"
	SleepWakeUpNoReason   SleepProblem = "despertarSinRazon"
	SleepDifficultyAsleep SleepProblem = "dificultadParaDormir"
	SleepWakeUpMultiple   SleepProblem = "despertarMultiplesVeces"
	SleepSnoring          SleepProblem = "ronquidos"
)

type WakeUpDelay string

const (
	WakeUpInstantly   WakeUpDelay = "instantaneamente"
	WakeUpFiveMin     WakeUpDelay = "cincoMinutos"
	WakeUpTenMin      WakeUpDelay = "diezMinutos"
	WakeUpMoreThanTen WakeUpDelay = "masDeDiezMinutos"
)

type TrainingLocation string

const (
	TrainGym           TrainingLocation = "gimnasio"
	TrainHomeNoGear    TrainingLocation = "casaSinEquipamiento"
	TrainHomeWeights   TrainingLocation = "casaConPesosLibres"
	TrainHomeMultiGym  TrainingLocation = "casaConMultigym"
)

type Addiction string

const (
	AddictionWeed       Addiction = "marihuana"
	AddictionCigarettes Addiction = "cigarrillos"
	AddictionAlcohol    Addiction = "alcohol"
	AddictionGambling   Addiction = "juego"
	AddictionVideogames Addiction = "videojuegos"
	AddictionSocial     Addiction = "redesSociales"
)

type Frequency string

const (
	FrequencyHour  Frequency = "hora"
	FrequencyDay   Frequency = "dia"
	FrequencyWeek  Frequency = "semana"
	FrequencyMonth Frequency = "mes"
)

type SupplementUnit string

const (
	UnitMg SupplementUnit = "mg"
	UnitG  SupplementUnit = "g"
	UnitMl SupplementUnit = "ml"
)

type PhoneDto struct {
	CountryCode string `json:"countryCode"`
	Number      string `json:"number"`
	FullNumber  string `json:"fullNumber,omitempty"`
}

// FormCuerpoFit is the flattened application DTO submitted upstream.
type FormCuerpoFit struct {
	Email                        string          `json:"email"`
	Name                         string          `json:"name"`
	LastName                     string          `json:"lastName"`
	Sex                          Sexo            `json:"sex"`
	Dob                          time.Time       `json:"dob"`
	Height                       float64         `json:"height"`
	Weight                       float64         `json:"weight"`
	Work                         string          `json:"work"`
	Goal                         string          `json:"goal"`
	WhyGoal                      string          `json:"whyGoal"`
	WeighingScale                bool            `json:"weighingScale"`
	FoodScale                    bool            `json:"foodScale"`
	CookingSpray                 bool            `json:"cookingSpray"`
	StepCountingApp              bool            `json:"stepCountingApp"`
	EatsJunkFoodMoreThan4PerWeek bool            `json:"eatsJunkFoodMoreThan4PerWeek"`
	DrinkEnoughWaterPerDay       bool            `json:"drinkEnoughWaterPerDay"`
	Addiction                    string          `json:"addiction,omitempty"`
	AddictionAmount              *float64        `json:"addictionAmount,omitempty"`
	AddictionFrequency           Frequency       `json:"addictionFrequency,omitempty"`
	RequireTreatmentCondition    []string        `json:"requireTreatmentCondition,omitempty"`
	Condition                    string          `json:"condition,omitempty"`
	SleepProblem                 []string        `json:"sleepProblem,omitempty"`
	GetUpTime                    WakeUpDelay     `json:"getUpTime,omitempty"`
	ScreenBeforeSleep            bool            `json:"screenBeforeSleep"`
	WorkoutConsistency           int             `json:"workoutConsistency"`
	PlaceToWorkOut               TrainingLocation `json:"placeToWorkOut"`
	Supplement                   string          `json:"supplement,omitempty"`
	SupplementUnit               SupplementUnit  `json:"supplementUnit,omitempty"`
	SupplementHowMany            *float64        `json:"supplementHowMany,omitempty"`
	SupplementHowOften           Frequency       `json:"supplementHowOften,omitempty"`
	UserRecordVideo              UserRecordVideo `json:"userRecordVideo"`
	Country                      string          `json:"country"`
	City                         string          `json:"city"`
	HowDidUserEndUpHere          string          `json:"howDidUserEndUpHere"`
	InstagramUser                string          `json:"instagramUser,omitempty"`
	Phone                        PhoneDto        `json:"phone"`
	LastComment                  string          `json:"lastComment,omitempty"`
	VerificationKey              string          `json:"-"`
}

// Application is the persisted copy of a submitted intake.
type Application struct {
	BaseModel
	SessionID string          `gorm:"size:64;uniqueIndex" json:"sessionId"`
	Email     string          `gorm:"size:255;index" json:"email"`
	FullName  string          `gorm:"size:255" json:"fullName"`
	Phone     string          `gorm:"size:64" json:"phone"`
	Country   string          `gorm:"size:128" json:"country"`
	Payload   json.RawMessage `gorm:"type:json" json:"payload"`
	VideoURL  string          `gorm:"size:512" json:"videoUrl,omitempty"`
	Whatsapp  string          `gorm:"size:64" json:"whatsapp"`
	Status    string          `gorm:"size:20;default:'submitted'" json:"status"`
}

func (Application) TableName() string {
	return "applications"
}

type AdminUser struct {
	BaseModel
	Email    string `gorm:"size:100;unique;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Name     string `gorm:"size:100" json:"name"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
