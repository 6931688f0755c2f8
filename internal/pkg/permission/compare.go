package permission

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/LennySnaider/pymebot-core/app/models"
	"github.com/LennySnaider/pymebot-core/internal/pkg/apperrors"
)

// PlanComparison is the delta between two plans. IsUpgrade is purely a
// function of the plans' totally ordered levels: a plan can add verticals
// while nominally being a lower level, and the level still decides.
type PlanComparison struct {
	IsUpgrade        bool     `json:"is_upgrade"`
	AddedVerticals   []string `json:"added_verticals"`
	RemovedVerticals []string `json:"removed_verticals"`
	AddedFeatures    []string `json:"added_features"`
	RemovedFeatures  []string `json:"removed_features"`
}

// ComparePlans compares the current plan against a candidate new plan.
func (r *Resolver) ComparePlans(currentPlanID, newPlanID uint) (*PlanComparison, error) {
	current, err := r.loadPlan(currentPlanID)
	if err != nil {
		return nil, err
	}
	next, err := r.loadPlan(newPlanID)
	if err != nil {
		return nil, err
	}

	return &PlanComparison{
		IsUpgrade:        models.PlanLevelRank(next.Level) > models.PlanLevelRank(current.Level),
		AddedVerticals:   diffStrings(next.Verticals, current.Verticals),
		RemovedVerticals: diffStrings(current.Verticals, next.Verticals),
		AddedFeatures:    diffStrings(next.Features, current.Features),
		RemovedFeatures:  diffStrings(current.Features, next.Features),
	}, nil
}

func (r *Resolver) loadPlan(id uint) (*models.Plan, error) {
	p, err := r.plans.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("plan", strconv.FormatUint(uint64(id), 10))
		}
		return nil, fmt.Errorf("compare plans: load plan %d: %w", id, err)
	}
	return p, nil
}

// diffStrings returns the elements of a that are not in b, in a's order.
func diffStrings(a, b models.StringList) []string {
	out := []string{}
	for _, s := range a {
		if !b.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
