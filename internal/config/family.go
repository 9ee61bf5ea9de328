package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

type ChildConfig struct {
	ID    string `yaml:"id" json:"id" validate:"required"`
	Name  string `yaml:"name" json:"name" validate:"required"`
	Color string `yaml:"color" json:"color" validate:"required,hexcolor"`
}

type ParentConfig struct {
	ID    string `yaml:"id" json:"id" validate:"required"`
	Name  string `yaml:"name" json:"name" validate:"required"`
	Color string `yaml:"color" json:"color" validate:"required,hexcolor"`
}

type CategoryConfig struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name"`
}

type SlotConfig struct {
	Start string `yaml:"start" json:"start" validate:"required,hhmm"`
	End   string `yaml:"end" json:"end" validate:"required,hhmm"`
	Note  string `yaml:"note,omitempty" json:"note,omitempty"`
}

type ActivityConfig struct {
	ID       string                `yaml:"id" json:"id" validate:"required"`
	Title    string                `yaml:"title" json:"title" validate:"required"`
	Child    string                `yaml:"child" json:"child" validate:"required"`
	Category string                `yaml:"category" json:"category"`
	Days     []string              `yaml:"days" json:"days" validate:"dive,weekday"`
	Schedule map[string]SlotConfig `yaml:"schedule" json:"schedule" validate:"dive,keys,weekday,endkeys"`
}

// TenancyConfig maps weekday names to parent ids for even and odd weeks.
type TenancyConfig struct {
	Even map[string]string `yaml:"even" json:"even" validate:"dive,keys,weekday,endkeys,required"`
	Odd  map[string]string `yaml:"odd" json:"odd" validate:"dive,keys,weekday,endkeys,required"`
}

// FamilyConfig is the YAML form of model.Family. Weekday keys accept English
// or Spanish day names.
type FamilyConfig struct {
	Children   []ChildConfig    `yaml:"children" json:"children" validate:"dive"`
	Parents    []ParentConfig   `yaml:"parents" json:"parents" validate:"min=1,dive"`
	Tenancy    TenancyConfig    `yaml:"tenancy" json:"tenancy"`
	Activities []ActivityConfig `yaml:"activities" json:"activities" validate:"dive"`
	Categories []CategoryConfig `yaml:"categories" json:"categories" validate:"dive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := model.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			_, err := model.ParseWeekday(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks field-level constraints only; FamilyModel also checks
// cross-references.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.Join(errs...)
		}
		return err
	}
	return nil
}

// FamilyModel validates the family section and converts it to the engine's
// model. A day listed for an activity without a schedule entry is dropped
// with a warning; every other integrity defect is an error.
func (c *Config) FamilyModel() (model.Family, error) {
	if err := c.Validate(); err != nil {
		return model.Family{}, fmt.Errorf("invalid config: %w", err)
	}

	fc := c.Family
	var fam model.Family
	for _, ch := range fc.Children {
		fam.Children = append(fam.Children, model.Child(ch))
	}
	for _, p := range fc.Parents {
		fam.Parents = append(fam.Parents, model.Parent(p))
	}
	for _, cat := range fc.Categories {
		fam.Categories = append(fam.Categories, model.Category(cat))
	}

	var errs []error
	fam.Tenancy = model.TenancyTable{
		Even: convertTenancy("even", fc.Tenancy.Even, &errs),
		Odd:  convertTenancy("odd", fc.Tenancy.Odd, &errs),
	}
	for _, ac := range fc.Activities {
		a, err := convertActivity(ac)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fam.Activities = append(fam.Activities, a)
	}
	if err := errors.Join(errs...); err != nil {
		return model.Family{}, err
	}

	if err := fam.Validate(); err != nil {
		return model.Family{}, err
	}
	return fam, nil
}

func convertTenancy(half string, in map[string]string, errs *[]error) map[time.Weekday]string {
	out := make(map[time.Weekday]string, len(in))
	for key, parent := range in {
		d, err := model.ParseWeekday(key)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("tenancy %s weeks: %w", half, err))
			continue
		}
		if prev, dup := out[d]; dup && prev != parent {
			*errs = append(*errs, fmt.Errorf("tenancy %s weeks: %s given twice", half, model.WeekdayKey(d)))
			continue
		}
		out[d] = parent
	}
	return out
}

func convertActivity(ac ActivityConfig) (model.Activity, error) {
	a := model.Activity{
		ID:       ac.ID,
		Title:    ac.Title,
		ChildID:  ac.Child,
		Category: ac.Category,
		Schedule: make(map[time.Weekday]model.Slot, len(ac.Schedule)),
	}

	// Sorted keys keep error messages stable.
	keys := make([]string, 0, len(ac.Schedule))
	for k := range ac.Schedule {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		sc := ac.Schedule[k]
		d, err := model.ParseWeekday(k)
		if err != nil {
			errs = append(errs, fmt.Errorf("activity %q: %w", ac.ID, err))
			continue
		}
		start, err := model.ParseTimeOfDay(sc.Start)
		if err != nil {
			errs = append(errs, fmt.Errorf("activity %q %s: %w", ac.ID, k, err))
			continue
		}
		end, err := model.ParseTimeOfDay(sc.End)
		if err != nil {
			errs = append(errs, fmt.Errorf("activity %q %s: %w", ac.ID, k, err))
			continue
		}
		a.Schedule[d] = model.Slot{Start: start, End: end, Note: sc.Note}
	}

	for _, name := range ac.Days {
		d, err := model.ParseWeekday(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("activity %q: %w", ac.ID, err))
			continue
		}
		if a.RunsOn(d) {
			continue
		}
		if _, ok := a.Schedule[d]; !ok {
			appLog.Warn("activity lists a day without schedule; skipping day",
				"activity", ac.ID, "day", model.WeekdayKey(d))
			continue
		}
		a.Days = append(a.Days, d)
	}
	return a, errors.Join(errs...)
}

// FamilyFromModel is the inverse of Config.FamilyModel. It backs the
// /api/family view.
func FamilyFromModel(f model.Family) FamilyConfig {
	fc := FamilyConfig{
		Tenancy: TenancyConfig{
			Even: make(map[string]string, len(f.Tenancy.Even)),
			Odd:  make(map[string]string, len(f.Tenancy.Odd)),
		},
	}
	for _, c := range f.Children {
		fc.Children = append(fc.Children, ChildConfig(c))
	}
	for _, p := range f.Parents {
		fc.Parents = append(fc.Parents, ParentConfig(p))
	}
	for _, c := range f.Categories {
		fc.Categories = append(fc.Categories, CategoryConfig(c))
	}
	for d, id := range f.Tenancy.Even {
		fc.Tenancy.Even[model.WeekdayKey(d)] = id
	}
	for d, id := range f.Tenancy.Odd {
		fc.Tenancy.Odd[model.WeekdayKey(d)] = id
	}
	for _, a := range f.Activities {
		ac := ActivityConfig{
			ID:       a.ID,
			Title:    a.Title,
			Child:    a.ChildID,
			Category: a.Category,
			Schedule: make(map[string]SlotConfig, len(a.Schedule)),
		}
		for _, d := range a.Days {
			ac.Days = append(ac.Days, model.WeekdayKey(d))
		}
		for d, s := range a.Schedule {
			ac.Schedule[model.WeekdayKey(d)] = SlotConfig{Start: s.Start.String(), End: s.End.String(), Note: s.Note}
		}
		fc.Activities = append(fc.Activities, ac)
	}
	return fc
}
