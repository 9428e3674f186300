package workflows

import (
	"fmt"
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

func slugifyCompanyURL(rawURL string) string {
	s := strings.ToLower(rawURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// CompanyProfileWorkflow implements Workflow D (spec §4.8): normalize the
// URL, check for an existing profile, research, an ambiguity gate with one
// refine-and-retry, profile narrative generation, logo extraction, then
// persistence with knowledge-graph sync.
func CompanyProfileWorkflow(ctx workflow.Context, in CompanyProfileInput) (CompanyProfileOutput, error) {
	if err := in.Seed.Validate(); err != nil {
		return CompanyProfileOutput{}, err
	}
	slug := slugifyCompanyURL(in.Seed.URL)

	persistCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
	var existing *domain.CompanyRecord
	existIn := GetCompanyBySlugInput{App: in.Seed.App, Slug: slug}
	if err := workflow.ExecuteActivity(persistCtx, ActivityGetCompanyBySlug, existIn).Get(ctx, &existing); err != nil {
		return CompanyProfileOutput{}, err
	}
	if existing != nil {
		return CompanyProfileOutput{Status: "exists", CompanyID: existing.ID, Slug: existing.Slug}, nil
	}

	companyName := slug
	researchCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	companySeed := domain.Seed{Kind: domain.SeedKindCompanyURL, URL: in.Seed.URL, App: in.Seed.App, Category: in.Seed.Category}
	var research domain.ResearchResult
	if err := workflow.ExecuteActivity(researchCtx, ActivityResearch, ResearchInput{Seed: companySeed}).Get(ctx, &research); err != nil {
		return CompanyProfileOutput{}, err
	}

	ambiguityCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutSectionAnalysis))
	var ambiguity AmbiguityOutput
	ambigIn := AssessAmbiguityInput{SeedCompanyName: companyName, SeedURL: in.Seed.URL, Research: research}
	if err := workflow.ExecuteActivity(ambiguityCtx, ActivityAssessAmbiguity, ambigIn).Get(ctx, &ambiguity); err != nil {
		return CompanyProfileOutput{}, err
	}
	if ambiguity.Score < 0.7 {
		// Re-query once with refined terms (the company name plus the
		// original seed URL as an explicit disambiguator).
		refinedSeed := domain.Seed{Kind: domain.SeedKindTopic, Topic: companyName + " " + in.Seed.URL, App: in.Seed.App, Category: in.Seed.Category}
		if err := workflow.ExecuteActivity(researchCtx, ActivityResearch, ResearchInput{Seed: refinedSeed}).Get(ctx, &research); err != nil {
			return CompanyProfileOutput{}, err
		}
		ambigIn.Research = research
		if err := workflow.ExecuteActivity(ambiguityCtx, ActivityAssessAmbiguity, ambigIn).Get(ctx, &ambiguity); err != nil {
			return CompanyProfileOutput{}, err
		}
		if ambiguity.Score < 0.5 {
			return CompanyProfileOutput{Status: "needs_manual_review", Slug: slug}, nil
		}
	}

	narrativeCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
	var payload *domain.NarrativePayload
	profIn := GenerateProfileNarrativeInput{CompanyName: companyName, App: in.Seed.App, Research: research}
	if err := workflow.ExecuteActivity(narrativeCtx, ActivityGenerateProfileNarrative, profIn).Get(ctx, &payload); err != nil {
		return CompanyProfileOutput{}, err
	}

	logoCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var candidates FindLogoCandidatesOutput
	if err := workflow.ExecuteActivity(logoCtx, ActivityFindLogoCandidates, FindLogoCandidatesInput{URL: in.Seed.URL}).Get(ctx, &candidates); err != nil {
		candidates = FindLogoCandidatesOutput{}
	}
	logoURL := ""
	if len(candidates.CandidateURLs) > 0 {
		var logoOut ExtractLogoOutput
		extractIn := ExtractLogoInput{CandidateURLs: candidates.CandidateURLs, Slug: slug}
		if err := workflow.ExecuteActivity(logoCtx, ActivityExtractLogo, extractIn).Get(ctx, &logoOut); err == nil {
			logoURL = logoOut.LogoURL
		}
	}
	if logoURL == "" {
		logoURL = fmt.Sprintf("https://placehold.co/400x400?text=%s", companyName)
	}

	company := &domain.CompanyRecord{
		Slug: slug, Name: companyName, App: in.Seed.App, FeaturedImageURL: logoURL,
		MetaDescription: payload.MetaDescription,
		Payload: map[string]interface{}{"narrative": payload},
	}
	var companyOut UpsertCompanyOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertCompany, UpsertCompanyInput{Company: company}).Get(ctx, &companyOut); err != nil {
		return CompanyProfileOutput{}, err
	}

	kgCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: timeoutKGSync})
	kgIn := SyncKnowledgeGraphInput{App: in.Seed.App, ContentID: companyOut.CompanyID, Title: companyName, Content: payload.Content}
	_ = workflow.ExecuteActivity(kgCtx, ActivitySyncKnowledgeGraph, kgIn).Get(ctx, nil)

	return CompanyProfileOutput{Status: "published", CompanyID: companyOut.CompanyID, Slug: slug}, nil
}
