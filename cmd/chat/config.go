package main

import "time"

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath     string        `env:"BLUGE_FILEPATH"`
	PollInterval      time.Duration `env:"POLL_INTERVAL,default=2s"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=30s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	LogLevel          string        `env:"LOG_LEVEL,default=warn"`
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	LLMAPIKey         string        `env:"LLM_API_KEY"`
	LLMModel          string        `env:"LLM_MODEL,default=gpt-4o-mini"`
	CensoredWordsFile string        `env:"CENSORED_WORDS_FILE"`
}
