package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"contractflow/internal/contract"
)

// ContractCallbackID identifies the contract intake modal's submissions.
const ContractCallbackID = "contract_submission"

// valueActionID is the action id of every input element in the modal.
const valueActionID = "value"

// Block ids of the modal inputs. They match the intake field names so validation
// errors map straight back onto the form.
const (
	BlockContractType  = "contract_type"
	BlockClientCompany = "client_company"
	BlockClientFirst   = "client_first"
	BlockClientLast    = "client_last"
	BlockClientTitle   = "client_title"
	BlockClientEmail   = "client_email"
	BlockAmount        = "amount"
	BlockDeliverable   = "deliverable"
	BlockDate          = "date"
)

func input(blockID, label, elementType, placeholder string, optional bool) Block {
	el := &Element{Type: elementType, ActionID: valueActionID}
	if placeholder != "" {
		el.Placeholder = Plain(placeholder)
	}
	return Block{Type: "input", BlockID: blockID, Label: Plain(label), Element: el, Optional: optional}
}

// ContractModal builds the intake modal. channelID is carried in private_metadata so
// the submission can be reported back where the command was run.
func ContractModal(channelID string) View {
	sprint := Option{Text: Plain(contract.VariantSprint1.DisplayName()), Value: string(contract.VariantSprint1)}
	phase := Option{Text: Plain(contract.VariantPhase2.DisplayName()), Value: string(contract.VariantPhase2)}

	typeSelect := input(BlockContractType, "Contract type", "static_select", "Choose a template", false)
	typeSelect.Element.Options = []Option{sprint, phase}
	typeSelect.Element.InitialOption = &sprint

	deliverable := input(BlockDeliverable, "Deliverable / scope", "plain_text_input", "What are we delivering?", true)
	deliverable.Element.Multiline = true

	return View{
		Type:            "modal",
		CallbackID:      ContractCallbackID,
		Title:           Plain("New contract"),
		Submit:          Plain("Create"),
		Close:           Plain("Cancel"),
		PrivateMetadata: channelID,
		Blocks: []Block{
			typeSelect,
			input(BlockClientCompany, "Client company", "plain_text_input", "Acme Corp", false),
			input(BlockClientFirst, "Client first name", "plain_text_input", "", false),
			input(BlockClientLast, "Client last name", "plain_text_input", "", false),
			input(BlockClientTitle, "Client title", "plain_text_input", "CEO", false),
			input(BlockClientEmail, "Client email", "email_text_input", "name@company.com", false),
			input(BlockAmount, "Amount (USD)", "plain_text_input", "5,000", false),
			deliverable,
			input(BlockDate, "Effective date", "datepicker", "", true),
		},
	}
}

// InteractionPayload is the subset of an interactive callback the service reads.
type InteractionPayload struct {
	Type string `json:"type"`
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	View ViewState `json:"view"`
}

// ViewState is a submitted modal.
type ViewState struct {
	ID              string `json:"id"`
	CallbackID      string `json:"callback_id"`
	PrivateMetadata string `json:"private_metadata"`
	State           struct {
		Values map[string]map[string]StateValue `json:"values"`
	} `json:"state"`
}

// StateValue is one input's submitted value.
type StateValue struct {
	Type           string  `json:"type"`
	Value          *string `json:"value"`
	SelectedDate   *string `json:"selected_date"`
	SelectedOption *Option `json:"selected_option"`
}

func (s StateValue) text() string {
	switch {
	case s.SelectedOption != nil:
		return s.SelectedOption.Value
	case s.SelectedDate != nil:
		return *s.SelectedDate
	case s.Value != nil:
		return *s.Value
	}
	return ""
}

// ParseInteraction decodes the form field "payload" of an interactive callback.
func ParseInteraction(payload string) (*InteractionPayload, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("empty interaction payload")
	}
	var p InteractionPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode interaction payload: %w", err)
	}
	return &p, nil
}

// Submission reads the modal's inputs field by field.
func (v ViewState) Submission() contract.Submission {
	get := func(block string) string {
		return strings.TrimSpace(v.State.Values[block][valueActionID].text())
	}
	return contract.Submission{
		ContractType:  get(BlockContractType),
		ClientCompany: get(BlockClientCompany),
		ClientFirst:   get(BlockClientFirst),
		ClientLast:    get(BlockClientLast),
		ClientTitle:   get(BlockClientTitle),
		ClientEmail:   get(BlockClientEmail),
		Amount:        contract.FlexString(get(BlockAmount)),
		Deliverable:   get(BlockDeliverable),
		Date:          get(BlockDate),
	}
}

// ValidationErrors maps a validation failure to modal block ids for a
// response_action "errors" reply.
func ValidationErrors(verr *contract.ValidationError) map[string]string {
	out := make(map[string]string, len(verr.Missing)+len(verr.Invalid))
	for _, field := range verr.Missing {
		out[blockFor(field)] = "This field is required."
	}
	for field, reason := range verr.Invalid {
		out[blockFor(field)] = capitalize(reason) + "."
	}
	return out
}

func blockFor(field string) string {
	if field == "scope" {
		return BlockDeliverable
	}
	return field
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
