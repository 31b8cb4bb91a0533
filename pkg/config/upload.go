package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

// UploadContexts: правила загрузки по назначению файла.
var UploadContexts = map[string]UploadConfig{
	// логотипы для шапки PDF
	"logo": {
		AllowedMimeTypes: []string{"image/png", "image/jpeg", "image/jpg", "image/gif"},
		MaxSizeMB:        2,
		PathPrefix:       "logos",
	},
}
