package services

import (
	"math"
	"sort"
	"time"

	"github.com/alimgiray/starscope/internal/models"
)

const commonRepoTableSize = 10

// AnalyzerService computes the run report: aggregate distributions and a
// suspicion score per stargazer. It is pure over the collection: no network,
// no wall clock, deterministic output for identical input tables.
type AnalyzerService struct {
	settings *models.SuspicionSettings
}

func NewAnalyzerService(settings *models.SuspicionSettings) *AnalyzerService {
	if settings == nil {
		settings = models.DefaultSuspicionSettings()
	}
	return &AnalyzerService{settings: settings}
}

// Analyze builds the report for one collection
func (s *AnalyzerService) Analyze(c *models.Collection) *models.Report {
	report := &models.Report{
		Owner:           c.Owner,
		Repo:            c.Repo,
		TotalStargazers: len(c.Stargazers),
		AccountTypes:    make(map[string]int),
		StatusCounts:    make(map[string]int),
		SettingsInUse:   s.settings,
	}

	for _, sg := range c.Stargazers {
		if sg.Partial {
			report.PartialRecords++
		}

		accountType := sg.AccountType
		if accountType == "" {
			accountType = "Unknown"
		}
		report.AccountTypes[accountType]++

		status := sg.StarredStatus
		if status == "" {
			status = models.StarredStatusUnknown
		}
		report.StatusCounts[status]++

		if sg.PublicRepos != nil {
			report.ZeroRepoKnown++
			if *sg.PublicRepos == 0 {
				report.ZeroRepoCount++
			}
		}
	}

	report.AgeBuckets = s.ageBuckets(c.Stargazers)
	report.RatioBuckets = s.ratioBuckets(c.Stargazers)
	report.CommonOwnedRepos = commonOwnedRepos(c.OwnedRepos)
	report.CommonStarredRepos = commonStarredRepos(c.StarredRepos)
	report.Scores = s.scoreStargazers(c.Stargazers)

	var sum float64
	for _, sc := range report.Scores {
		sum += sc.Score
		if sc.Flagged {
			report.FlaggedCount++
		}
	}
	if len(report.Scores) > 0 {
		report.MeanScore = round1(sum / float64(len(report.Scores)))
	}

	return report
}

// scoreStargazers computes the weighted suspicion score for every stargazer.
// A signal that cannot be evaluated (nil field) is excluded from both the
// numerator and the denominator, so partial records never inflate scores.
func (s *AnalyzerService) scoreStargazers(stargazers []*models.Stargazer) []models.StargazerScore {
	scores := make([]models.StargazerScore, 0, len(stargazers))
	ageThreshold := time.Duration(s.settings.AgeThresholdDays) * 24 * time.Hour

	for _, sg := range stargazers {
		var triggered []string
		numerator := 0
		denominator := 0

		if age, ok := sg.AccountAgeAtStar(); ok {
			denominator += s.settings.NewAccountWeight
			if age < ageThreshold {
				numerator += s.settings.NewAccountWeight
				triggered = append(triggered, models.SignalNewAccount)
			}
		}

		if sg.PublicRepos != nil {
			denominator += s.settings.ZeroRepoWeight
			if *sg.PublicRepos == 0 {
				numerator += s.settings.ZeroRepoWeight
				triggered = append(triggered, models.SignalZeroRepos)
			}
		}

		// Follower graphs mean nothing for organizations.
		if !sg.IsOrganization() {
			if ratio, ok := sg.FollowerRatio(); ok && *sg.Following >= s.settings.MinFollowing {
				denominator += s.settings.FollowerRatioWeight
				if ratio < s.settings.RatioThreshold {
					numerator += s.settings.FollowerRatioWeight
					triggered = append(triggered, models.SignalFollowerRatio)
				}
			}
		}

		if sg.ActivityCount != nil {
			denominator += s.settings.NoActivityWeight
			if *sg.ActivityCount == 0 {
				numerator += s.settings.NoActivityWeight
				triggered = append(triggered, models.SignalNoActivity)
			}
		}

		score := 0.0
		if denominator > 0 {
			score = round1(100 * float64(numerator) / float64(denominator))
		}

		scores = append(scores, models.StargazerScore{
			Login:       sg.Login,
			AccountType: sg.AccountType,
			Score:       score,
			Signals:     triggered,
			Flagged:     denominator > 0 && score >= s.settings.FlagThreshold,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Login < scores[j].Login
	})
	return scores
}

func (s *AnalyzerService) ageBuckets(stargazers []*models.Stargazer) []models.BucketCount {
	buckets := []models.BucketCount{
		{Label: "< 30 days"},
		{Label: "30-90 days"},
		{Label: "90 days - 1 year"},
		{Label: "1-3 years"},
		{Label: ">= 3 years"},
		{Label: "unknown"},
	}

	const day = 24 * time.Hour
	for _, sg := range stargazers {
		age, ok := sg.AccountAgeAtStar()
		switch {
		case !ok:
			buckets[5].Count++
		case age < 30*day:
			buckets[0].Count++
		case age < 90*day:
			buckets[1].Count++
		case age < 365*day:
			buckets[2].Count++
		case age < 3*365*day:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

func (s *AnalyzerService) ratioBuckets(stargazers []*models.Stargazer) []models.BucketCount {
	buckets := []models.BucketCount{
		{Label: "< 0.1"},
		{Label: "0.1 - 0.5"},
		{Label: "0.5 - 2"},
		{Label: ">= 2"},
		{Label: "unknown"},
	}

	for _, sg := range stargazers {
		ratio, ok := sg.FollowerRatio()
		switch {
		case !ok:
			buckets[4].Count++
		case ratio < 0.1:
			buckets[0].Count++
		case ratio < 0.5:
			buckets[1].Count++
		case ratio < 2:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}

// commonOwnedRepos counts distinct stargazers per owned repository short
// name. Many stargazers all owning identically named repos is the
// bot-cluster signal.
func commonOwnedRepos(repos []*models.OwnedRepo) []models.RepoCount {
	owners := make(map[string]map[string]struct{})
	contributors := make(map[string]struct{})
	for _, r := range repos {
		if owners[r.Name] == nil {
			owners[r.Name] = make(map[string]struct{})
		}
		owners[r.Name][r.OwnerLogin] = struct{}{}
		contributors[r.OwnerLogin] = struct{}{}
	}
	return frequencyTable(owners, len(contributors))
}

// commonStarredRepos counts distinct stargazers per starred repository
func commonStarredRepos(repos []*models.StarredRepo) []models.RepoCount {
	starrers := make(map[string]map[string]struct{})
	contributors := make(map[string]struct{})
	for _, r := range repos {
		if starrers[r.FullName] == nil {
			starrers[r.FullName] = make(map[string]struct{})
		}
		starrers[r.FullName][r.Login] = struct{}{}
		contributors[r.Login] = struct{}{}
	}
	return frequencyTable(starrers, len(contributors))
}

func frequencyTable(byRepo map[string]map[string]struct{}, contributors int) []models.RepoCount {
	table := make([]models.RepoCount, 0, len(byRepo))
	for name, logins := range byRepo {
		share := 0.0
		if contributors > 0 {
			share = float64(len(logins)) / float64(contributors)
		}
		table = append(table, models.RepoCount{
			Name:  name,
			Count: len(logins),
			Share: share,
		})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].Count != table[j].Count {
			return table[i].Count > table[j].Count
		}
		return table[i].Name < table[j].Name
	})

	if len(table) > commonRepoTableSize {
		table = table[:commonRepoTableSize]
	}
	return table
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
