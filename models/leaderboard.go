package models

// LeaderboardEntry - эфемерная строка рейтинга, пересчитывается на каждый запрос.
type LeaderboardEntry struct {
	TeamID   int     `json:"teamId"`
	TeamName string  `json:"teamName"`
	Score    float64 `json:"score"`
}

// LeaderboardView - проекция рейтингов события по раундам и суммарно.
type LeaderboardView struct {
	PPT     []LeaderboardEntry `json:"ppt_leaderboard"`
	Repo    []LeaderboardEntry `json:"repo_leaderboard"`
	Overall []LeaderboardEntry `json:"overall_leaderboard"`
}
