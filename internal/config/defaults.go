package config

// DefaultExtensions is the set of file extensions ingested when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".pdf", ".docx", ".odt", ".rtf", ".xlsx"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-3.5-turbo-0125"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.7
	}
	if cfg.Chat.EmbeddingModel == "" {
		cfg.Chat.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 3
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Storage.PersistDir == "" {
		cfg.Storage.PersistDir = "./data/index"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "./data/keyword.bleve"
	}
}
