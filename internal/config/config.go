package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"golang.org/x/term"

	"idagio-dl/internal/helpers"
	"idagio-dl/internal/model"
	"idagio-dl/internal/ui"
)

// formatCodes maps the user-facing quality tier to the upstream format code
// sent to the bulk stream endpoint.
var formatCodes = map[int]int{
	1: 50,
	2: 70,
	3: 90,
}

// ResolveFormat validates a quality tier and returns the upstream format code.
// An out-of-range tier is a configuration error caught before any network activity.
func ResolveFormat(fmtTier int) (int, error) {
	code, ok := formatCodes[fmtTier]
	if !ok {
		return 0, errors.New("format must be between 1 and 3")
	}
	return code, nil
}

// ParseArgs parses CLI arguments.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// ReadConfig loads config.json from next to the binary, prompting for a new
// one on first run.
func ReadConfig() (*model.Config, error) {
	scriptDir, err := helpers.GetScriptDir()
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(scriptDir, "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := PromptForConfig(configPath); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// PromptForConfig runs the interactive first-time setup flow and writes the
// resulting config.json to configPath.
func PromptForConfig(configPath string) error {
	scanner := bufio.NewScanner(os.Stdin)
	ui.PrintHeader("First Time Setup")
	ui.PrintInfo("No config.json found. Let's create one!")
	fmt.Println()

	fmt.Printf("%s%s%s Enter your IDAGIO email: ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	email := strings.TrimSpace(scanner.Text())
	if email == "" {
		return errors.New("email is required")
	}

	fmt.Printf("%s%s%s Enter your IDAGIO password: ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	password, err := readPassword()
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	fmt.Println()
	ui.PrintSection("Track Download Quality")
	qualityOptions := []string{
		"1 = 160 / 192 Kbps AAC",
		"2 = 320 Kbps AAC / MP3",
		fmt.Sprintf("3 = 16-bit / 44.1 kHz FLAC %s(recommended)%s", ui.ColorGreen, ui.ColorReset),
	}
	ui.PrintList(qualityOptions, ui.ColorYellow)
	fmt.Printf("\n%s%s%s Enter format choice [1-3] (default: 3): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	formatStr := strings.TrimSpace(scanner.Text())
	format := 3
	if formatStr != "" {
		format, err = strconv.Atoi(formatStr)
		if err != nil || format < 1 || format > 3 {
			return errors.New("format must be between 1 and 3")
		}
	}

	fmt.Printf("\n%s%s%s Enter download directory (default: IDAGIO downloads): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	outPath := strings.TrimSpace(scanner.Text())

	fmt.Printf("%s%s%s Keep album covers as folder.jpg? [y/N] (default: N): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	keepCoversStr := strings.ToLower(strings.TrimSpace(scanner.Text()))
	keepCovers := keepCoversStr == "y" || keepCoversStr == "yes"

	fmt.Printf("%s%s%s Embed covers into tracks? [Y/n] (default: Y): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	writeCoversStr := strings.ToLower(strings.TrimSpace(scanner.Text()))
	writeCovers := writeCoversStr != "n" && writeCoversStr != "no"

	fmt.Printf("\n%s%s%s Use FFmpeg from system PATH? [y/N] (default: N): ", ui.ColorCyan, ui.BulletArrow, ui.ColorReset)
	scanner.Scan()
	useFfmpegEnvVarStr := strings.ToLower(strings.TrimSpace(scanner.Text()))
	useFfmpegEnvVar := useFfmpegEnvVarStr == "y" || useFfmpegEnvVarStr == "yes"

	cfg := model.Config{
		Email:           email,
		Password:        password,
		Format:          format,
		OutPath:         outPath,
		KeepCovers:      keepCovers,
		WriteCovers:     writeCovers,
		UseFfmpegEnvVar: useFfmpegEnvVar,
	}

	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return err
	}

	fmt.Println()
	ui.PrintSuccess("config.json created successfully!")
	ui.PrintInfo("You can edit config.json later to change these settings.")
	fmt.Println()
	return nil
}

// readPassword reads a password without echoing when stdin is a terminal.
func readPassword() (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		return strings.TrimSpace(scanner.Text()), scanner.Err()
	}
	pwd, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pwd)), nil
}

// ParseCfg reads config, parses CLI args, and returns the resolved Config.
func ParseCfg() (*model.Config, error) {
	cfg, err := ReadConfig()
	if err != nil {
		return nil, err
	}
	args := ParseArgs()
	if args.Format != -1 {
		cfg.Format = args.Format
	}
	cfg.FormatCode, err = ResolveFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	if args.OutPath != "" {
		cfg.OutPath = args.OutPath
	}
	cfg.OutPath = strings.TrimSpace(cfg.OutPath)
	if cfg.OutPath == "" {
		cfg.OutPath = "IDAGIO downloads"
	} else {
		cfg.OutPath = filepath.Join(cfg.OutPath, "IDAGIO downloads")
	}
	if args.KeepCovers {
		cfg.KeepCovers = true
	}
	if args.WriteCovers {
		cfg.WriteCovers = true
	}
	cfg.ArtistFilter = args.ArtistFilter
	// ffmpeg is only needed for concert videos, so a missing binary is not
	// fatal here; the video path checks again before muxing.
	ffmpegName, err := ResolveFfmpegBinary(cfg)
	if err != nil {
		ui.PrintWarning(err.Error() + "; concert downloads will fail")
	}
	cfg.FfmpegNameStr = ffmpegName
	cfg.Urls, err = helpers.ProcessUrls(args.Urls)
	if err != nil {
		ui.PrintError("Failed to process URLs")
		return nil, err
	}
	return cfg, nil
}

// ResolveFfmpegBinary locates the ffmpeg binary based on config settings.
func ResolveFfmpegBinary(cfg *model.Config) (string, error) {
	if cfg.UseFfmpegEnvVar {
		if resolved, err := exec.LookPath("ffmpeg"); err == nil {
			return resolved, nil
		}
		return "", errors.New("ffmpeg not found in PATH (install ffmpeg or unset useFfmpegEnvVar)")
	}

	// Default: a bundled ffmpeg next to the binary, then PATH.
	candidates := []string{"./ffmpeg"}
	if scriptDir, err := helpers.GetScriptDir(); err == nil {
		candidates = append(candidates, filepath.Join(scriptDir, "ffmpeg"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		return resolved, nil
	}
	return "", errors.New("ffmpeg binary not found (checked ./ffmpeg and PATH)")
}
