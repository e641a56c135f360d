package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/solver"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"60"` // 预览求解是同步的，需要比普通请求更长
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 14 天，单位为小时
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD,required"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN,required"`
		SMTP       struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		ProgressExpiration  int    `env:"PROGRESS_EXPIRATION" envDefault:"3600"` // 求解进度在 redis 中保留的秒数
	} `envPrefix:"REDIS_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
	Solver struct {
		MaxSteps         int    `env:"MAX_STEPS" envDefault:"5000"`
		MaxDuration      int    `env:"MAX_DURATION" envDefault:"30"` // 秒
		PlateauSteps     int    `env:"PLATEAU_STEPS" envDefault:"1000"`
		HorizonDays      int    `env:"HORIZON_DAYS" envDefault:"14"`
		WorkHoursStart   int    `env:"WORK_HOURS_START" envDefault:"480"`
		WorkHoursEnd     int    `env:"WORK_HOURS_END" envDefault:"1080"`
		AllowWeekends    bool   `env:"ALLOW_WEEKENDS" envDefault:"false"`
		SampleSize       int    `env:"SAMPLE_SIZE" envDefault:"24"`
		ProgressInterval int    `env:"PROGRESS_INTERVAL" envDefault:"100"`
		WeightsFile      string `env:"WEIGHTS_FILE"`
		PreviewTimeout   int    `env:"PREVIEW_TIMEOUT" envDefault:"20"` // 同步预览求解的最长时间，单位为秒
	} `envPrefix:"SOLVER_"`
	Worker struct {
		MetricsPort    string `env:"METRICS_PORT" envDefault:"9091"`
		ProgressBuffer int    `env:"PROGRESS_BUFFER" envDefault:"64"`
	} `envPrefix:"WORKER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// SolveConfig 根据环境变量生成默认的求解参数，配置了权重文件时会读取其中的约束权重
func (cfg *Config) SolveConfig() (solver.Config, error) {
	sc := solver.DefaultConfig()
	sc.MaxSteps = cfg.Solver.MaxSteps
	sc.MaxDuration = time.Duration(cfg.Solver.MaxDuration) * time.Second
	sc.PlateauSteps = cfg.Solver.PlateauSteps
	sc.HorizonDays = cfg.Solver.HorizonDays
	sc.WorkHoursStart = cfg.Solver.WorkHoursStart
	sc.WorkHoursEnd = cfg.Solver.WorkHoursEnd
	sc.AllowWeekends = cfg.Solver.AllowWeekends
	sc.SampleSize = cfg.Solver.SampleSize
	sc.ProgressInterval = cfg.Solver.ProgressInterval

	if cfg.Solver.WeightsFile != "" {
		weights, err := LoadWeightsFile(cfg.Solver.WeightsFile)
		if err != nil {
			return solver.Config{}, err
		}
		sc.ConstraintWeights = weights
	}

	return sc, nil
}

// LoadWeightsFile 读取 YAML 格式的约束权重，文件内容是约束名到整数权重的映射
func LoadWeightsFile(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取权重文件失败: %w", err)
	}

	weights := make(map[string]int64)
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("解析权重文件失败: %w", err)
	}

	for name := range weights {
		if _, ok := solver.ConstraintByName(name); !ok {
			return nil, fmt.Errorf("权重文件中存在未知的约束 %q", name)
		}
	}

	return weights, nil
}
