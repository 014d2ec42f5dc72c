// Package validation holds the input schemas for the admin API and the
// Brazilian-format validators (CNPJ, phone numbers) they depend on.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

var (
	phoneRe      = regexp.MustCompile(`^\+\d{13}$`)
	whatsappRe   = regexp.MustCompile(`^\+\d{2}\d{2}\d{8,9}$`)
	workflowIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	nonDigitRe   = regexp.MustCompile(`[^\d]`)
	nonDialRe    = regexp.MustCompile(`[^\d+]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return ValidateCNPJ(fl.Field().String())
	})
	v.RegisterValidation("e164br", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(nonDialRe.ReplaceAllString(fl.Field().String(), ""))
	})
	v.RegisterValidation("whatsapp", func(fl validator.FieldLevel) bool {
		return whatsappRe.MatchString(nonDialRe.ReplaceAllString(fl.Field().String(), ""))
	})
	v.RegisterValidation("workflowid", func(fl validator.FieldLevel) bool {
		return workflowIDRe.MatchString(fl.Field().String())
	})

	v.RegisterStructValidation(templateRefinement, TemplateInput{})
	return v
}

// ValidateCNPJ checks a Brazilian CNPJ using the official check-digit
// algorithm. Accepts formatted (XX.XXX.XXX/XXXX-XX) or bare input.
func ValidateCNPJ(cnpj string) bool {
	cnpj = nonDigitRe.ReplaceAllString(cnpj, "")
	if len(cnpj) != 14 {
		return false
	}
	// All-same-digit strings satisfy the checksum but are not issued CNPJs.
	if strings.Count(cnpj, cnpj[:1]) == len(cnpj) {
		return false
	}
	if cnpjCheckDigit(cnpj, 12) != int(cnpj[12]-'0') {
		return false
	}
	return cnpjCheckDigit(cnpj, 13) == int(cnpj[13]-'0')
}

// cnpjCheckDigit computes the check digit over the first n digits with the
// official weight sequence (starts at n-7, wraps from 2 back to 9).
func cnpjCheckDigit(cnpj string, n int) int {
	sum := 0
	pos := n - 7
	for i := 0; i < n; i++ {
		sum += int(cnpj[i]-'0') * pos
		pos--
		if pos < 2 {
			pos = 9
		}
	}
	if sum%11 < 2 {
		return 0
	}
	return 11 - sum%11
}

// UnformatCNPJ strips everything but digits, the normalized form stored and
// compared for uniqueness.
func UnformatCNPJ(cnpj string) string {
	return nonDigitRe.ReplaceAllString(cnpj, "")
}

// templateRefinement enforces that a template carries at least one
// limitation or one instruction.
func templateRefinement(sl validator.StructLevel) {
	in := sl.Current().Interface().(TemplateInput)
	if len(in.Limitations) == 0 && len(in.Instructions) == 0 {
		sl.ReportError(in.Limitations, "limitations", "Limitations", "limitation_or_instruction", "")
	}
}

// ── Input schemas ───────────────────────────────────────────

type TenantInput struct {
	Name            string            `json:"name" validate:"required,min=3,max=100"`
	CNPJ            string            `json:"cnpj" validate:"required,cnpj"`
	Phone           string            `json:"phone" validate:"required,e164br"`
	Plan            models.TenantPlan `json:"plan" validate:"required,oneof=basic pro enterprise"`
	NeurocoreID     string            `json:"neurocore_id" validate:"required,uuid"`
	NicheID         *string           `json:"niche_id" validate:"omitempty,uuid"`
	TechName        string            `json:"responsible_tech_name" validate:"required,min=3"`
	TechWhatsApp    string            `json:"responsible_tech_whatsapp" validate:"required,e164br"`
	TechEmail       string            `json:"responsible_tech_email" validate:"required,email"`
	FinanceName     string            `json:"responsible_finance_name" validate:"required,min=3"`
	FinanceWhatsApp string            `json:"responsible_finance_whatsapp" validate:"required,e164br"`
	FinanceEmail    string            `json:"responsible_finance_email" validate:"required,email"`

	IsActive                *bool `json:"is_active"`
	MasterIntegrationActive *bool `json:"master_integration_active"`
}

type NeurocoreInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	WorkflowID  string `json:"workflow_id" validate:"required,workflowid"`
	IsActive    *bool  `json:"is_active"`
}

type AgentInput struct {
	Name     string               `json:"name" validate:"required,min=3,max=100"`
	Function models.AgentFunction `json:"function" validate:"required,oneof=attendant intention guard_rails observer"`
	Reactive bool                 `json:"reactive"`
}

type GuidelineStepInput struct {
	Title string   `json:"title" validate:"required,min=3"`
	Steps []string `json:"steps" validate:"required,min=1,dive,min=1"`
}

type TemplateInput struct {
	Name     string               `json:"name" validate:"required,min=3,max=100"`
	Function models.AgentFunction `json:"function" validate:"required,oneof=attendant intention guard_rails observer"`
	Reactive bool                 `json:"reactive"`

	PersonaName   string `json:"persona_name"`
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	Objective     string `json:"objective"`
	Communication string `json:"communication"`
	Personality   string `json:"personality"`

	Limitations       []string             `json:"limitations" validate:"omitempty,dive,min=1"`
	Instructions      []string             `json:"instructions" validate:"omitempty,dive,min=1"`
	Guideline         []GuidelineStepInput `json:"guideline" validate:"omitempty,dive"`
	Rules             json.RawMessage      `json:"rules"`
	OtherInstructions json.RawMessage      `json:"other_instructions"`

	IsActive *bool `json:"is_active"`
}

type ChannelInput struct {
	TenantID     string `json:"tenant_id" validate:"required,uuid"`
	ProviderID   string `json:"provider_id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required,min=3,max=100"`
	Number       string `json:"identification_number" validate:"required,whatsapp"`
	InstanceName string `json:"instance_company_name" validate:"required,min=3,max=100"`

	IsActive     *bool  `json:"is_active"`
	IsReceiving  *bool  `json:"is_receiving_messages"`
	IsSending    *bool  `json:"is_sending_messages"`
	Observations string `json:"observations" validate:"max=500"`

	APIURL             string          `json:"external_api_url" validate:"required,url"`
	ProviderChannelID  string          `json:"provider_external_channel_id" validate:"required,max=200"`
	Config             json.RawMessage `json:"config"`
	ClientDescriptions string          `json:"client_descriptions" validate:"max=500"`

	// nil means use the default (8 fragments).
	WaitFragments *int `json:"message_wait_time_fragments" validate:"omitempty,min=1,max=60"`
}

type SinglePromptInput struct {
	Prompt string `json:"prompt" validate:"required,min=10,max=5000"`
}

type GuardRailsPromptInput struct {
	PromptJailbreak string `json:"prompt_jailbreak" validate:"required,min=10,max=5000"`
	PromptNSFW      string `json:"prompt_nsfw" validate:"required,min=10,max=5000"`
}

// ── Error reporting ─────────────────────────────────────────

// FieldErrors maps field paths (json names, nested as a.b[0].c) to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate runs the schema tags on in and returns FieldErrors on failure.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fe := make(FieldErrors, len(verrs))
	for _, v := range verrs {
		fe[fieldPath(v)] = message(v)
	}
	return fe
}

// fieldPath strips the root struct name off the namespace, leaving the
// json-tagged path (e.g. "guideline[0].title").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		default:
			return "must be at least " + fe.Param()
		}
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "cnpj":
		return "must be a valid CNPJ"
	case "e164br":
		return "must use the format +5511999999999"
	case "whatsapp":
		return "must use the format +55 11 98989-9999"
	case "workflowid":
		return "may only contain letters, numbers, hyphen and underscore"
	case "limitation_or_instruction":
		return "template needs at least one limitation or instruction"
	default:
		return "is invalid"
	}
}
