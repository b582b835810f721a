package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultUserAgent is the browser identity sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

// DefaultSearchURLs are the two construction-year slices of the Belgian
// for-sale search.
var DefaultSearchURLs = []string{
	"https://www.immoweb.be/en/search/house-and-apartment/for-sale?countries=BE&minConstructionYear=1950&maxConstructionYear=1999",
	"https://www.immoweb.be/en/search/house-and-apartment/for-sale?countries=BE&minConstructionYear=2000",
}

// DefaultSaleFlags are the classified flags that decide the sale category,
// in priority order.
var DefaultSaleFlags = []string{
	"isPublicSale",
	"isNotarySale",
	"isLifeAnnuitySale",
	"isAnInteractiveSale",
	"isNewlyBuilt",
	"isInvestmentProject",
	"isUnderOption",
	"isNewRealEstateProject",
}

const (
	FetchModeStatic  = "static"
	FetchModeBrowser = "browser"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SearchURLs     []string
	StartPage      int
	EndPage        int
	PoolSize       int
	RequestTimeout time.Duration
	PhaseDelay     time.Duration
	RateLimitMs    int

	UserAgent    string
	ExtraHeaders map[string]string
	FetchMode    string
	ChromeBin    string

	DataDir           string
	LinksFile         string
	RawOutputFile     string
	CleanedOutputFile string

	BedroomThreshold int
	OutlierRules     string
	DedupColumns     []string
	SaleFlags        []string
	SaleDefaultLabel string

	PostgresDSN       string
	DBConnectAttempts int

	LogLevel string
	LogJSON  bool
	NoColor  bool
}

// Load reads the .env file (or the given files) and returns a populated
// Config struct.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		SearchURLs:     getEnvList("SEARCH_URLS", DefaultSearchURLs),
		StartPage:      getEnvInt("START_PAGE", 1),
		EndPage:        getEnvInt("END_PAGE", 333),
		PoolSize:       getEnvInt("POOL_SIZE", 10),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		PhaseDelay:     getEnvDuration("PHASE_DELAY", 30*time.Second),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),

		UserAgent:    getEnv("USER_AGENT", DefaultUserAgent),
		ExtraHeaders: parseHeaders(getEnv("EXTRA_HEADERS", "Accept-Language=en-US,en;q=0.9")),
		FetchMode:    strings.ToLower(getEnv("FETCH_MODE", FetchModeStatic)),
		ChromeBin:    getEnv("CHROME_BIN", ""),

		DataDir:           getEnv("DATA_DIR", "data"),
		LinksFile:         getEnv("LINKS_FILE", "property_links.csv"),
		RawOutputFile:     getEnv("RAW_OUTPUT_FILE", "all_properties_output.csv"),
		CleanedOutputFile: getEnv("CLEANED_OUTPUT_FILE", "cleaned_dataset.csv"),

		BedroomThreshold: getEnvInt("BEDROOM_THRESHOLD", 200),
		OutlierRules:     getEnv("OUTLIER_RULES", ""),
		DedupColumns:     getEnvList("DEDUP_COLUMNS", []string{"postal_code", "street", "number", "box"}),
		SaleFlags:        getEnvList("SALE_FLAGS", DefaultSaleFlags),
		SaleDefaultLabel: getEnv("SALE_DEFAULT_LABEL", "StandardSale"),

		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
		NoColor:  getEnvBool("NO_COLOR", false),
	}
}

// Validate reports configuration that would make a run meaningless.
func (c *Config) Validate() error {
	var errs []error
	if len(c.SearchURLs) == 0 {
		errs = append(errs, errors.New("SEARCH_URLS is empty"))
	}
	for _, raw := range c.SearchURLs {
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid search URL %q", raw))
		}
	}
	if c.StartPage < 1 || c.EndPage < c.StartPage {
		errs = append(errs, fmt.Errorf("invalid page range %d..%d", c.StartPage, c.EndPage))
	}
	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("POOL_SIZE must be at least 1, got %d", c.PoolSize))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout))
	}
	if c.PhaseDelay < 0 {
		errs = append(errs, fmt.Errorf("PHASE_DELAY must not be negative, got %v", c.PhaseDelay))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("USER_AGENT is required"))
	}
	if c.FetchMode != FetchModeStatic && c.FetchMode != FetchModeBrowser {
		errs = append(errs, fmt.Errorf("FETCH_MODE must be %q or %q, got %q", FetchModeStatic, FetchModeBrowser, c.FetchMode))
	}
	if c.BedroomThreshold <= 0 {
		errs = append(errs, fmt.Errorf("BEDROOM_THRESHOLD must be positive, got %d", c.BedroomThreshold))
	}
	return errors.Join(errs...)
}

// PageCount returns the number of search pages harvested per search URL.
func (c *Config) PageCount() int {
	if c.EndPage < c.StartPage {
		return 0
	}
	return c.EndPage - c.StartPage + 1
}

// LinksPath returns the location of the harvested links file.
func (c *Config) LinksPath() string { return c.dataPath(c.LinksFile) }

// RawOutputPath returns the location of the raw property database.
func (c *Config) RawOutputPath() string { return c.dataPath(c.RawOutputFile) }

// CleanedOutputPath returns the location of the cleaned dataset.
func (c *Config) CleanedOutputPath() string { return c.dataPath(c.CleanedOutputFile) }

func (c *Config) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Headers returns the static request headers, User-Agent included.
func (c *Config) Headers() map[string]string {
	h := make(map[string]string, len(c.ExtraHeaders)+1)
	for k, v := range c.ExtraHeaders {
		h[k] = v
	}
	h["User-Agent"] = c.UserAgent
	return h
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	return splitList(val)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseHeaders reads "Key=Value;Key=Value". Semicolons separate pairs so
// that header values may contain commas. A "q=" segment is a quality
// parameter of the previous value, as in "Accept-Language=fr-BE,fr;q=0.8".
func parseHeaders(s string) map[string]string {
	h := make(map[string]string)
	last := ""
	for _, pair := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "q" && last != "" {
			h[last] += ";q=" + v
			continue
		}
		if k != "" {
			h[k] = v
			last = k
		}
	}
	return h
}
