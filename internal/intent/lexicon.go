package intent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/textnorm"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Words is a keyword list folded at decode time.
type Words []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Words) UnmarshalYAML(value *yaml.Node) error {
	var raw []string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*w = textnorm.FoldAll(raw)
	return nil
}

// Lexicon is the configuration data behind every detector.
type Lexicon struct {
	LoginPrompt string `yaml:"login_prompt"`

	Cascade struct {
		PersonalData     Words            `yaml:"personal_data"`
		SubjectWords     Words            `yaml:"subject_words"`
		SubjectMutations Words            `yaml:"subject_mutations"`
		Grades           Words            `yaml:"grades"`
		Courses          Words            `yaml:"courses"`
		Payments         Words            `yaml:"payments"`
		Summary          Words            `yaml:"summary"`
		Withdrawal       Words            `yaml:"withdrawal"`
		Declaration      Words            `yaml:"declaration"`
		DeclarationKinds map[string]Words `yaml:"declaration_kinds"`
		Invoice          Words            `yaml:"invoice"`
		Lock             Words            `yaml:"lock"`
		LockSubjectWords Words            `yaml:"lock_subject_words"`
		Diploma          Words            `yaml:"diploma"`
		Certificate      Words            `yaml:"certificate"`
		Transfer         Words            `yaml:"transfer"`
		Address          Words            `yaml:"address"`
		AddSubject       Words            `yaml:"add_subject"`
		ChangeVerbs      Words            `yaml:"change_verbs"`
		RemoveVerbs      Words            `yaml:"remove_verbs"`
		Thanks           Words            `yaml:"thanks"`
		Greetings        Words            `yaml:"greetings"`
		Attendance       Words            `yaml:"attendance"`
	} `yaml:"cascade"`

	Consent struct {
		NegativePhrases    Words `yaml:"negative_phrases"`
		NegativeWords      Words `yaml:"negative_words"`
		AffirmativePhrases Words `yaml:"affirmative_phrases"`
		AffirmativeWords   Words `yaml:"affirmative_words"`
		ConfessionPhrases  Words `yaml:"confession_phrases"`
		ConfessionWords    Words `yaml:"confession_words"`
	} `yaml:"consent"`

	Interest struct {
		Words   Words `yaml:"words"`
		Context Words `yaml:"context"`
	} `yaml:"interest"`

	Services []ServiceRule `yaml:"services"`

	RegistrationFields []domain.FieldSpec `yaml:"registration_fields"`

	Heuristic struct {
		Wellbeing            Words    `yaml:"wellbeing"`
		Thanks               Words    `yaml:"thanks"`
		ThanksReplies        []string `yaml:"thanks_replies"`
		Farewells            Words    `yaml:"farewells"`
		Praise               Words    `yaml:"praise"`
		PraiseTargets        Words    `yaml:"praise_targets"`
		Identity             Words    `yaml:"identity"`
		Time                 Words    `yaml:"time"`
		Jokes                Words    `yaml:"jokes"`
		JokeReplies          []string `yaml:"joke_replies"`
		Arithmetic           Words    `yaml:"arithmetic"`
		Topics               []Topic  `yaml:"topics"`
		QuestionWords        Words    `yaml:"question_words"`
		QuestionReplies      []string `yaml:"question_replies"`
		OtherQuestionReplies []string `yaml:"other_question_replies"`
		StatementReplies     []string `yaml:"statement_replies"`
	} `yaml:"heuristic"`

	Opportunities struct {
		Academic Words              `yaml:"academic"`
		Blocks   []OpportunityBlock `yaml:"blocks"`
	} `yaml:"opportunities"`
}

// ServiceRule is one row of the service-need trigger table.
type ServiceRule struct {
	Service  string       `yaml:"service"`
	Purpose  string       `yaml:"purpose"`
	Triggers Words        `yaml:"triggers"`
	Message  string       `yaml:"message"`
	Subtypes []SubtypeDef `yaml:"subtypes"`
}

// SubtypeDef refines a service (declaration kind, transfer direction).
type SubtypeDef struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Words Words  `yaml:"words"`
}

// Topic is a canned reply for a small-talk keyword.
type Topic struct {
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// OpportunityBlock is a group of follow-up suggestions.
type OpportunityBlock struct {
	Title       string   `yaml:"title"`
	When        Words    `yaml:"when"`
	With        Words    `yaml:"with"`
	Without     Words    `yaml:"without"`
	Suggestions []string `yaml:"suggestions"`
}

// UnmarshalYAML folds the topic keyword.
func (t *Topic) UnmarshalYAML(value *yaml.Node) error {
	type plain Topic
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	p.Keyword = textnorm.Fold(p.Keyword)
	*t = Topic(p)
	return nil
}

// DefaultLexicon returns the embedded lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// LoadLexicon reads a lexicon file. An empty path returns the embedded one.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes and validates a lexicon document.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return &lex, nil
}

// Validate checks the entries the engine cannot work without.
func (l *Lexicon) Validate() error {
	var errs []error
	if !strings.Contains(l.LoginPrompt, "{purpose}") {
		errs = append(errs, errors.New("login_prompt must contain {purpose}"))
	}
	if len(l.Consent.AffirmativeWords) == 0 || len(l.Consent.NegativeWords) == 0 {
		errs = append(errs, errors.New("consent words are required"))
	}
	if len(l.RegistrationFields) == 0 {
		errs = append(errs, errors.New("registration_fields is empty"))
	}
	for i, f := range l.RegistrationFields {
		if f.Name == "" || f.Prompt == "" {
			errs = append(errs, fmt.Errorf("registration_fields[%d]: name and prompt are required", i))
		}
		if !f.Validator.Valid() {
			errs = append(errs, fmt.Errorf("registration_fields[%d]: unknown validator %q", i, f.Validator))
		}
	}
	for i, s := range l.Services {
		if s.Service == "" || len(s.Triggers) == 0 {
			errs = append(errs, fmt.Errorf("services[%d]: service and triggers are required", i))
		}
	}
	h := l.Heuristic
	if len(h.QuestionReplies) == 0 || len(h.OtherQuestionReplies) == 0 || len(h.StatementReplies) == 0 {
		errs = append(errs, errors.New("heuristic acknowledgment replies are required"))
	}
	return errors.Join(errs...)
}

// Login renders the login prompt for purpose.
func (l *Lexicon) Login(purpose string) string {
	return strings.ReplaceAll(l.LoginPrompt, "{purpose}", purpose)
}
