package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/clipseek/data/clipseek.db"
	}
	if cfg.Indexer.Workers == 0 {
		cfg.Indexer.Workers = 1
	}
	if cfg.Indexer.Workers > 5 {
		cfg.Indexer.Workers = 5
	}
	if cfg.Indexer.PollIntervalMs == 0 {
		cfg.Indexer.PollIntervalMs = 50
	}
	if cfg.Indexer.IdleDelayMs == 0 {
		cfg.Indexer.IdleDelayMs = 250
	}
	if cfg.Indexer.StartupDelayMs == 0 {
		cfg.Indexer.StartupDelayMs = 10000
	}
	if cfg.Clients.TimeoutMinutes == 0 {
		cfg.Clients.TimeoutMinutes = 5
	}
	if cfg.Index.NgramSize == 0 {
		cfg.Index.NgramSize = 3
	}
	if cfg.Index.AvgDocLength == 0 {
		cfg.Index.AvgDocLength = 120
	}
	if cfg.Index.BM25K1 == 0 {
		cfg.Index.BM25K1 = 1.5
	}
	if cfg.Index.BM25B == 0 {
		cfg.Index.BM25B = 0.75
	}
	if cfg.Index.CandidatePoolPerNgram == 0 {
		cfg.Index.CandidatePoolPerNgram = 300
	}
	if cfg.Index.KeywordCap == 0 {
		cfg.Index.KeywordCap = 12
	}
	if cfg.Index.MinClusterFraction == 0 {
		cfg.Index.MinClusterFraction = 0.1
	}
	if cfg.Index.MinPointsPerCluster == 0 {
		cfg.Index.MinPointsPerCluster = 4
	}
	if cfg.Index.ExpansionFloor == 0 {
		cfg.Index.ExpansionFloor = 0.6
	}
	if cfg.Index.VectorTolerance == 0 {
		cfg.Index.VectorTolerance = 0.65
	}
	if cfg.Index.LatinRatioTolerance == 0 {
		cfg.Index.LatinRatioTolerance = 0.5
	}
	if cfg.Index.TranscriptKeywordCap == 0 {
		cfg.Index.TranscriptKeywordCap = 4
	}
	if cfg.Hints.QuietPeriodMs == 0 {
		cfg.Hints.QuietPeriodMs = 5000
	}
}
