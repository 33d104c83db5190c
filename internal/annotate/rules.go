package annotate

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/casewire/casewire/internal/cite"
)

// ClaimRule pairs a claim-recognizing regex with the citation bucket that
// supports it. Rules are applied in declaration order, which fixes marker
// numbering across runs on identical input.
type ClaimRule struct {
	Pattern *regexp.Regexp
	Bucket  string
}

// DefaultClaimRules is the built-in claim table for the legal-case domain.
func DefaultClaimRules() []ClaimRule {
	return []ClaimRule{
		{
			Pattern: regexp.MustCompile(`(?i)(?:net|total)\s+proceeds[^.\n]*?\$[\d,]+(?:\.\d{2})?`),
			Bucket:  cite.BucketNetProceeds,
		},
		{
			Pattern: regexp.MustCompile(`(?i)(?:mortgage|loan)\s+payoff[^.\n]*?\$[\d,]+(?:\.\d{2})?`),
			Bucket:  cite.BucketMortgagePayoff,
		},
		{
			Pattern: regexp.MustCompile(`(?i)statement\s+of\s+decision[^.\n]*?allocat\w+`),
			Bucket:  cite.BucketSODAllocation,
		},
		{
			Pattern: regexp.MustCompile(`(?i)mortgage\s+relief|forbearance`),
			Bucket:  cite.BucketMortgageRelief,
		},
		{
			Pattern: regexp.MustCompile(`(?i)continuance|continued\s+the\s+hearing`),
			Bucket:  cite.BucketContinuance,
		},
		{
			Pattern: regexp.MustCompile(`(?i)referr\w+\s+(?:to\s+)?(?:new\s+)?counsel|counsel\s+referral`),
			Bucket:  cite.BucketCounselRef,
		},
		{
			Pattern: regexp.MustCompile(`(?i)apprais\w+[^.\n]*?\$[\d,]+(?:\.\d{2})?|appraised\s+value`),
			Bucket:  cite.BucketAppraisal,
		},
		{
			Pattern: regexp.MustCompile(`(?i)withholding\s+of\s+\d+(?:\.\d+)?\s?%|\b3\.33\s?%`),
			Bucket:  cite.BucketWithholding,
		},
	}
}

// claimFile is the YAML shape of an on-disk claim table.
type claimFile struct {
	Claims []claimSpec `yaml:"claims"`
}

type claimSpec struct {
	Pattern string `yaml:"pattern"`
	Bucket  string `yaml:"bucket"`
}

// LoadClaimRules reads a YAML claim table, preserving declaration order.
func LoadClaimRules(path string) ([]ClaimRule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f claimFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rules := make([]ClaimRule, 0, len(f.Claims))
	for i, spec := range f.Claims {
		if spec.Bucket == "" {
			return nil, fmt.Errorf("%s: claim %d has no bucket", path, i)
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: claim %q pattern: %w", path, spec.Bucket, err)
		}
		rules = append(rules, ClaimRule{Pattern: re, Bucket: spec.Bucket})
	}
	return rules, nil
}
