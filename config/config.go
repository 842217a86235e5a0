package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvRPCURL   = "TAIKO_RPC_URL"
	EnvLogLevel = "BOT_LOG_LEVEL"
	EnvLogFile  = "BOT_LOG_FILE"

	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

// Taiko mainnet deployments.
const (
	TaikoChainID       = 167000
	TaikoRPCURL        = "https://rpc.mainnet.taiko.xyz/"
	TaikoExplorerTxURL = "https://taikoscan.network/tx/"

	USDCAddress        = "0x07d83526730c7438048d55a4fc0b850e2aab6f0b"
	WETHAddress        = "0xA51894664A773981C6C112C43ce576f315d5b1B6"
	IzumiQuoterAddress = "0x2C6Df0fDbCE9D2Ded2B52A117126F2Dc991f770f"
	IzumiSwapAddress   = "0x04830cfCED9772b8ACbAF76Cfc7A630Ad82c9148"
	IzumiFee           = 3000
)

type Options struct {
	ConfigPath string
	EnvFile    string
	RPCURL     string
	LogLevel   string
	LogFile    string
}

type Config struct {
	RPCURL        string
	ChainID       int64
	ExplorerTxURL string

	TokenA common.Address
	TokenB common.Address
	// WrappedNative is the WETH9 contract used by wrap and trade.
	WrappedNative common.Address

	Quoter     common.Address
	SwapRouter common.Address
	Fee        uint32

	Swap  SwapSettings
	Wrap  LoopSettings
	Trade LoopSettings
	Log   LogSettings
}

type SwapSettings struct {
	Interval         time.Duration
	MaxTx            int
	SlippageBps      int64
	GasBufferPercent uint64
	StrictERC20      bool
}

type LoopSettings struct {
	Delay time.Duration
}

type LogSettings struct {
	Level string
	File  string
}

type fileConfig struct {
	RPCURL        string `yaml:"rpc_url"`
	ChainID       *int64 `yaml:"chain_id"`
	ExplorerTxURL string `yaml:"explorer_tx_url"`
	Tokens        struct {
		A             string `yaml:"a"`
		B             string `yaml:"b"`
		WrappedNative string `yaml:"wrapped_native"`
	} `yaml:"tokens"`
	Izumi struct {
		Quoter string  `yaml:"quoter"`
		Swap   string  `yaml:"swap"`
		Fee    *uint32 `yaml:"fee"`
	} `yaml:"izumi"`
	Swap struct {
		Interval         string  `yaml:"interval"`
		MaxTx            *int    `yaml:"max_tx"`
		SlippageBps      *int64  `yaml:"slippage_bps"`
		GasBufferPercent *uint64 `yaml:"gas_buffer_percent"`
		StrictERC20      *bool   `yaml:"strict_erc20"`
	} `yaml:"swap"`
	Wrap struct {
		Delay string `yaml:"delay"`
	} `yaml:"wrap"`
	Trade struct {
		Delay string `yaml:"delay"`
	} `yaml:"trade"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func Default() Config {
	return Config{
		RPCURL:        TaikoRPCURL,
		ChainID:       TaikoChainID,
		ExplorerTxURL: TaikoExplorerTxURL,
		TokenA:        common.HexToAddress(USDCAddress),
		TokenB:        common.HexToAddress(WETHAddress),
		WrappedNative: common.HexToAddress(WETHAddress),
		Quoter:        common.HexToAddress(IzumiQuoterAddress),
		SwapRouter:    common.HexToAddress(IzumiSwapAddress),
		Fee:           IzumiFee,
		Swap: SwapSettings{
			Interval:         30 * time.Second,
			MaxTx:            100,
			SlippageBps:      50,
			GasBufferPercent: 10,
			StrictERC20:      true,
		},
		Wrap:  LoopSettings{Delay: 5 * time.Second},
		Trade: LoopSettings{Delay: time.Second},
		Log:   LogSettings{Level: "info"},
	}
}

// Load resolves settings with precedence flags > env > file > defaults.
// The .env file is loaded first so its values count as environment.
func Load(opts Options) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := Default()

	path, explicit := opts.ConfigPath, true
	if strings.TrimSpace(path) == "" {
		path, explicit = defaultConfigFile, false
	}
	if err := applyFile(path, explicit, &cfg); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	applyOptions(opts, &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return errors.New("rpc url is required")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("invalid chain id %d", c.ChainID)
	}
	if c.TokenA == c.TokenB {
		return errors.New("tokens.a and tokens.b must differ")
	}
	if c.Fee == 0 || c.Fee >= 1<<24 {
		return fmt.Errorf("invalid fee tier %d", c.Fee)
	}
	if c.Swap.Interval <= 0 {
		return fmt.Errorf("swap.interval must be positive, got %s", c.Swap.Interval)
	}
	if c.Wrap.Delay < 0 || c.Trade.Delay < 0 {
		return errors.New("wrap.delay and trade.delay must not be negative")
	}
	if c.Swap.MaxTx <= 0 {
		return fmt.Errorf("swap.max_tx must be positive, got %d", c.Swap.MaxTx)
	}
	if c.Swap.SlippageBps < 0 || c.Swap.SlippageBps >= 10_000 {
		return fmt.Errorf("swap.slippage_bps must be in [0, 10000), got %d", c.Swap.SlippageBps)
	}
	return nil
}

func loadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyFile(path string, explicit bool, cfg *Config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(buf, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.RPCURL != "" {
		cfg.RPCURL = fc.RPCURL
	}
	if fc.ChainID != nil {
		cfg.ChainID = *fc.ChainID
	}
	if fc.ExplorerTxURL != "" {
		cfg.ExplorerTxURL = fc.ExplorerTxURL
	}
	for _, addr := range []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"tokens.a", fc.Tokens.A, &cfg.TokenA},
		{"tokens.b", fc.Tokens.B, &cfg.TokenB},
		{"tokens.wrapped_native", fc.Tokens.WrappedNative, &cfg.WrappedNative},
		{"izumi.quoter", fc.Izumi.Quoter, &cfg.Quoter},
		{"izumi.swap", fc.Izumi.Swap, &cfg.SwapRouter},
	} {
		if addr.raw == "" {
			continue
		}
		if !common.IsHexAddress(addr.raw) {
			return fmt.Errorf("%s: invalid address %q", addr.name, addr.raw)
		}
		*addr.dst = common.HexToAddress(addr.raw)
	}
	if fc.Izumi.Fee != nil {
		cfg.Fee = *fc.Izumi.Fee
	}
	if fc.Swap.MaxTx != nil {
		cfg.Swap.MaxTx = *fc.Swap.MaxTx
	}
	if fc.Swap.SlippageBps != nil {
		cfg.Swap.SlippageBps = *fc.Swap.SlippageBps
	}
	if fc.Swap.GasBufferPercent != nil {
		cfg.Swap.GasBufferPercent = *fc.Swap.GasBufferPercent
	}
	if fc.Swap.StrictERC20 != nil {
		cfg.Swap.StrictERC20 = *fc.Swap.StrictERC20
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"swap.interval", fc.Swap.Interval, &cfg.Swap.Interval},
		{"wrap.delay", fc.Wrap.Delay, &cfg.Wrap.Delay},
		{"trade.delay", fc.Trade.Delay, &cfg.Trade.Delay},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	if fc.Log.Level != "" {
		cfg.Log.Level = fc.Log.Level
	}
	if fc.Log.File != "" {
		cfg.Log.File = fc.Log.File
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvRPCURL)); v != "" {
		cfg.RPCURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Log.File = v
	}
}

func applyOptions(opts Options, cfg *Config) {
	if v := strings.TrimSpace(opts.RPCURL); v != "" {
		cfg.RPCURL = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(opts.LogFile); v != "" {
		cfg.Log.File = v
	}
}
