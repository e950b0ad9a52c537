package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alimgiray/starscope/internal/models"
	"github.com/alimgiray/starscope/pkg/logger"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"
)

var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// ReporterService renders one run's report and collection into CSV tables,
// a Markdown summary, chart images, and an XLSX workbook. All artifacts of
// a run share a repo+timestamp prefix so runs never overwrite each other.
type ReporterService struct{}

func NewReporterService() *ReporterService {
	return &ReporterService{}
}

// RunPrefix builds the shared artifact prefix for a run
func RunPrefix(owner, repo string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		illegalFilenameChars.ReplaceAllString(owner, "_"),
		illegalFilenameChars.ReplaceAllString(repo, "_"),
		at.Format("20060102_150405"))
}

// Render writes all artifacts into outputDir and returns the paths written.
// Tables are written atomically (temp file + rename); a chart with no data
// is skipped with a warning rather than failing the run.
func (s *ReporterService) Render(report *models.Report, collection *models.Collection, outputDir, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = RunPrefix(collection.Owner, collection.Repo, time.Now())
	}
	join := func(suffix string) string {
		return filepath.Join(outputDir, prefix+suffix)
	}

	var written []string
	add := func(path string, err error) error {
		if err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	scoreByLogin := make(map[string]models.StargazerScore, len(report.Scores))
	for _, sc := range report.Scores {
		scoreByLogin[sc.Login] = sc
	}

	if err := add(join("_stargazer_analysis.csv"), s.writeStargazerTable(join("_stargazer_analysis.csv"), collection, scoreByLogin)); err != nil {
		return written, err
	}
	if err := add(join("_all_owned_repos_list.csv"), s.writeOwnedTable(join("_all_owned_repos_list.csv"), collection)); err != nil {
		return written, err
	}
	if err := add(join("_all_starred_repos_list.csv"), s.writeStarredTable(join("_all_starred_repos_list.csv"), collection)); err != nil {
		return written, err
	}
	if err := add(join("_user_activity.csv"), s.writeActivityTable(join("_user_activity.csv"), collection)); err != nil {
		return written, err
	}

	ownedChart := join("_common_owned_repos.png")
	ownedChartWritten, err := s.renderCommonRepoChart(ownedChart, report)
	if err != nil {
		return written, err
	}
	if ownedChartWritten {
		written = append(written, ownedChart)
	}

	statusChart := join("_account_status_distribution.png")
	statusChartWritten, err := s.renderStatusChart(statusChart, report)
	if err != nil {
		return written, err
	}
	if statusChartWritten {
		written = append(written, statusChart)
	}

	if err := add(join("_analysis_report.md"), s.writeMarkdownReport(join("_analysis_report.md"), report, ownedChartWritten, statusChartWritten, prefix)); err != nil {
		return written, err
	}
	if err := add(join("_workbook.xlsx"), s.writeWorkbook(join("_workbook.xlsx"), report, collection, scoreByLogin)); err != nil {
		return written, err
	}

	logger.WithField("files", len(written)).Infof("Report rendered with prefix %s", prefix)
	return written, nil
}

func (s *ReporterService) writeStargazerTable(path string, collection *models.Collection, scores map[string]models.StargazerScore) error {
	header := []string{
		"login", "account_id", "account_type", "starred_at", "account_created_at",
		"public_repos", "followers", "following", "total_starred", "activity_events",
		"starred_status", "partial", "suspicion_score", "signals",
	}

	rows := make([][]string, 0, len(collection.Stargazers))
	for _, sg := range collection.Stargazers {
		sc := scores[sg.Login]
		rows = append(rows, []string{
			sg.Login,
			strconv.FormatInt(sg.AccountID, 10),
			sg.AccountType,
			sg.StarredAt.UTC().Format(time.RFC3339),
			fmtTimePtr(sg.AccountCreatedAt),
			fmtIntPtr(sg.PublicRepos),
			fmtIntPtr(sg.Followers),
			fmtIntPtr(sg.Following),
			fmtIntPtr(sg.TotalStarred),
			fmtIntPtr(sg.ActivityCount),
			sg.StarredStatus,
			strconv.FormatBool(sg.Partial),
			strconv.FormatFloat(sc.Score, 'f', 1, 64),
			strings.Join(sc.Signals, "|"),
		})
	}
	return writeCSV(path, header, rows)
}

func (s *ReporterService) writeOwnedTable(path string, collection *models.Collection) error {
	header := []string{"owner_login", "repo_full_name", "description", "stars", "forks", "created_at", "pushed_at"}
	rows := make([][]string, 0, len(collection.OwnedRepos))
	for _, r := range collection.OwnedRepos {
		rows = append(rows, []string{
			r.OwnerLogin, r.FullName, r.Description,
			strconv.Itoa(r.Stars), strconv.Itoa(r.Forks),
			fmtTimePtr(r.CreatedAt), fmtTimePtr(r.PushedAt),
		})
	}
	return writeCSV(path, header, rows)
}

func (s *ReporterService) writeStarredTable(path string, collection *models.Collection) error {
	header := []string{"login", "repo_full_name", "description", "stars", "forks", "created_at", "pushed_at"}
	rows := make([][]string, 0, len(collection.StarredRepos))
	for _, r := range collection.StarredRepos {
		rows = append(rows, []string{
			r.Login, r.FullName, r.Description,
			strconv.Itoa(r.Stars), strconv.Itoa(r.Forks),
			fmtTimePtr(r.CreatedAt), fmtTimePtr(r.PushedAt),
		})
	}
	return writeCSV(path, header, rows)
}

func (s *ReporterService) writeActivityTable(path string, collection *models.Collection) error {
	header := []string{"login", "event_type", "repo_name", "event_timestamp"}
	rows := make([][]string, 0, len(collection.Activity))
	for _, ev := range collection.Activity {
		rows = append(rows, []string{
			ev.Login, ev.EventType, ev.RepoName,
			ev.EventTimestamp.UTC().Format(time.RFC3339),
		})
	}
	return writeCSV(path, header, rows)
}

func (s *ReporterService) writeMarkdownReport(path string, report *models.Report, ownedChart, statusChart bool, prefix string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Stargazer Analysis Report for %s/%s\n\n", report.Owner, report.Repo)
	fmt.Fprintf(&b, "Total stargazers analyzed: %d\n\n", report.TotalStargazers)
	if report.PartialRecords > 0 {
		fmt.Fprintf(&b, "Partial records (sub-data unavailable): %d\n\n", report.PartialRecords)
	}

	total := report.TotalStargazers
	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return 100 * float64(n) / float64(total)
	}

	b.WriteString("## Account Status Distribution\n\n")
	for _, status := range sortedKeys(report.StatusCounts) {
		fmt.Fprintf(&b, "- %s: %d (%.2f%%)\n", status, report.StatusCounts[status], pct(report.StatusCounts[status]))
	}
	b.WriteString("\n")
	if statusChart {
		fmt.Fprintf(&b, "![Account Status Distribution](%s_account_status_distribution.png)\n\n", prefix)
	}

	b.WriteString("## Account Type Distribution\n\n")
	for _, accountType := range sortedKeys(report.AccountTypes) {
		fmt.Fprintf(&b, "- %s: %d (%.2f%%)\n", accountType, report.AccountTypes[accountType], pct(report.AccountTypes[accountType]))
	}
	b.WriteString("\n")

	b.WriteString("## Account Age at Star Time\n\n")
	for _, bucket := range report.AgeBuckets {
		fmt.Fprintf(&b, "- %s: %d\n", bucket.Label, bucket.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Follower/Following Ratio\n\n")
	for _, bucket := range report.RatioBuckets {
		fmt.Fprintf(&b, "- %s: %d\n", bucket.Label, bucket.Count)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Accounts With Zero Public Repositories\n\n%d of %d accounts with known repository counts\n\n",
		report.ZeroRepoCount, report.ZeroRepoKnown)

	b.WriteString("## Common Owned Repositories\n\n")
	if len(report.CommonOwnedRepos) == 0 {
		b.WriteString("No owned repositories collected.\n\n")
	} else {
		for _, rc := range report.CommonOwnedRepos {
			fmt.Fprintf(&b, "- `%s`: %d (%.2f%%)\n", rc.Name, rc.Count, 100*rc.Share)
		}
		b.WriteString("\n")
		if ownedChart {
			fmt.Fprintf(&b, "![Common Owned Repositories](%s_common_owned_repos.png)\n\n", prefix)
		}
	}

	b.WriteString("## Common Starred Repositories\n\n")
	if len(report.CommonStarredRepos) == 0 {
		b.WriteString("No starred repositories collected.\n\n")
	} else {
		for _, rc := range report.CommonStarredRepos {
			fmt.Fprintf(&b, "- `%s`: %d (%.2f%%)\n", rc.Name, rc.Count, 100*rc.Share)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top Suspicious Accounts\n\n")
	fmt.Fprintf(&b, "Flagged accounts (score >= %.0f): %d. Mean score: %.1f.\n\n",
		report.SettingsInUse.FlagThreshold, report.FlaggedCount, report.MeanScore)
	b.WriteString("| Login | Type | Score | Signals |\n|---|---|---|---|\n")
	for _, sc := range report.TopScores(20) {
		fmt.Fprintf(&b, "| %s | %s | %.1f | %s |\n", sc.Login, sc.AccountType, sc.Score, strings.Join(sc.Signals, ", "))
	}
	b.WriteString("\nScores are heuristic signals, not proof of inauthentic activity.\n")

	return writeFileAtomic(path, []byte(b.String()))
}

// renderCommonRepoChart draws the common-owned-repo bar chart. Returns false
// without error when there is nothing to draw.
func (s *ReporterService) renderCommonRepoChart(path string, report *models.Report) (bool, error) {
	if len(report.CommonOwnedRepos) == 0 {
		logger.Warnf("No owned repository data to plot, skipping %s", filepath.Base(path))
		return false, nil
	}

	bars := make([]chart.Value, 0, len(report.CommonOwnedRepos))
	maxCount := 0
	for _, rc := range report.CommonOwnedRepos {
		bars = append(bars, chart.Value{Label: rc.Name, Value: float64(rc.Count)})
		if rc.Count > maxCount {
			maxCount = rc.Count
		}
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Most common owned repositories (%s/%s stargazers)", report.Owner, report.Repo),
		Height:   512,
		BarWidth: 48,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
		},
		Bars: bars,
	}

	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if err := graph.Render(chart.PNG, f); err != nil {
		return false, fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// renderStatusChart draws the account status pie chart
func (s *ReporterService) renderStatusChart(path string, report *models.Report) (bool, error) {
	values := make([]chart.Value, 0, len(report.StatusCounts))
	total := 0
	for _, status := range sortedKeys(report.StatusCounts) {
		count := report.StatusCounts[status]
		if count == 0 {
			continue
		}
		total += count
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", status, count),
			Value: float64(count),
		})
	}
	if total == 0 {
		logger.Warnf("No status data to plot, skipping %s", filepath.Base(path))
		return false, nil
	}

	graph := chart.PieChart{
		Title:  "Account status distribution",
		Width:  512,
		Height: 512,
		Values: values,
	}

	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if err := graph.Render(chart.PNG, f); err != nil {
		return false, fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeWorkbook exports all tables plus a summary sheet as a single XLSX file
func (s *ReporterService) writeWorkbook(path string, report *models.Report, collection *models.Collection, scores map[string]models.StargazerScore) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Repository", fmt.Sprintf("%s/%s", report.Owner, report.Repo)},
		{"Total stargazers", report.TotalStargazers},
		{"Partial records", report.PartialRecords},
		{"Flagged accounts", report.FlaggedCount},
		{"Mean suspicion score", report.MeanScore},
		{"Zero-repo accounts", report.ZeroRepoCount},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Summary", cell, &row); err != nil {
			return err
		}
	}

	stargazerRows := [][]interface{}{
		{"login", "account_type", "starred_at", "account_created_at", "public_repos", "followers", "following", "starred_status", "partial", "suspicion_score"},
	}
	for _, sg := range collection.Stargazers {
		sc := scores[sg.Login]
		stargazerRows = append(stargazerRows, []interface{}{
			sg.Login, sg.AccountType, sg.StarredAt.UTC().Format(time.RFC3339),
			fmtTimePtr(sg.AccountCreatedAt), fmtIntPtr(sg.PublicRepos),
			fmtIntPtr(sg.Followers), fmtIntPtr(sg.Following),
			sg.StarredStatus, sg.Partial, sc.Score,
		})
	}
	if err := writeSheet(f, "Stargazers", stargazerRows); err != nil {
		return err
	}

	ownedRows := [][]interface{}{{"owner_login", "repo_full_name", "stars", "forks"}}
	for _, r := range collection.OwnedRepos {
		ownedRows = append(ownedRows, []interface{}{r.OwnerLogin, r.FullName, r.Stars, r.Forks})
	}
	if err := writeSheet(f, "Owned Repos", ownedRows); err != nil {
		return err
	}

	starredRows := [][]interface{}{{"login", "repo_full_name", "stars", "forks"}}
	for _, r := range collection.StarredRepos {
		starredRows = append(starredRows, []interface{}{r.Login, r.FullName, r.Stars, r.Forks})
	}
	if err := writeSheet(f, "Starred Repos", starredRows); err != nil {
		return err
	}

	activityRows := [][]interface{}{{"login", "event_type", "repo_name", "event_timestamp"}}
	for _, ev := range collection.Activity {
		activityRows = append(activityRows, []interface{}{ev.Login, ev.EventType, ev.RepoName, ev.EventTimestamp.UTC().Format(time.RFC3339)})
	}
	if err := writeSheet(f, "Activity", activityRows); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// writeCSV writes a delimited table atomically
func writeCSV(path string, header []string, rows [][]string) error {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// writeFileAtomic writes through a temp file in the same directory so a
// killed run never leaves a truncated table behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".starscope-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
