package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/config"
	"dexscreener-alert-bot/internal/alert"
	"dexscreener-alert-bot/internal/commands"
	"dexscreener-alert-bot/internal/database"
	"dexscreener-alert-bot/internal/dexscreener"
	"dexscreener-alert-bot/internal/telegram"
	"dexscreener-alert-bot/lib/translation"
)

// BotMetrics counts the bot-facing traffic; the monitor keeps its own set.
type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
	UsersCount        prometheus.Gauge
	UsersSet          map[int64]struct{}
	Mutex             sync.Mutex
}

var (
	botMetrics = NewBotMetrics()
)

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dexwatch",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		UsersCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dexwatch",
			Subsystem: "telegram_bot",
			Name:      "users_count",
			Help:      "The number of unique users seen since the counters were reset",
		}),
		UsersSet: make(map[int64]struct{}),
	}

	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.MessagesHandled)
	prometheus.MustRegister(metrics.UsersCount)

	return metrics
}

func main() {
	translation.Configure("locales", config.GetString("lang"))
	log.Infof("Bot language: %s", translation.GetLanguage())

	store, err := database.Open(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	monitorMetrics := alert.NewMetrics(prometheus.DefaultRegisterer)
	loadMetricsFromDB(store, monitorMetrics)

	prices := dexscreener.NewClient(time.Duration(config.GetInt("price_cache_ttl_sec")) * time.Second)
	handler := commands.NewHandler(store, prices)

	bot, err := connectBot(handler)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	monitor := alert.NewMonitor(store, prices, telegram.NewNotifier(bot), monitorMetrics, alert.Config{
		Interval:  time.Duration(config.GetInt("check_interval_sec")) * time.Second,
		BatchSize: config.GetInt("quote_batch_size"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go monitor.Run(ctx)

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}
	go handleUpdates(bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetricsToDB(store, monitorMetrics)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		saveMetricsToDB(store, monitorMetrics)
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

// connectBot retries the initial Telegram handshake; a flaky network at boot
// should not kill the process before the sweep loop even starts.
func connectBot(handler *commands.Handler) (*telegram.Bot, error) {
	var bot *telegram.Bot

	operation := func() error {
		var err error
		bot, err = telegram.NewBot(telegram.BotConfig{
			Token:          config.GetString("telegram_bot_token"),
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
		}, handler)
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return bot, nil
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting dexscreener alert bot...")
}

func handleUpdates(bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery != nil {
			bot.HandleCallbackQuery(update.CallbackQuery)
			botMetrics.CommandsProcessed.Inc()
			continue
		}

		if update.Message == nil || update.Message.From == nil {
			log.Debug("Received non-message update")
			continue
		}

		botMetrics.MessagesHandled.Inc()
		trackUser(update.Message.From.ID)

		handleMessage(bot, update)
	}
}

func handleMessage(bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(update)
	if text == "" {
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		botMetrics.CommandsProcessed.Inc()
	}
}

func trackUser(userID int64) {
	botMetrics.Mutex.Lock()
	defer botMetrics.Mutex.Unlock()

	if _, exists := botMetrics.UsersSet[userID]; !exists {
		botMetrics.UsersSet[userID] = struct{}{}
		botMetrics.UsersCount.Set(float64(len(botMetrics.UsersSet)))
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetricsFromDB(store *database.Store, monitorMetrics *alert.Metrics) {
	counters := map[string]prometheus.Counter{
		"commands_processed":     botMetrics.CommandsProcessed,
		"messages_handled":       botMetrics.MessagesHandled,
		"sweeps_total":           monitorMetrics.Sweeps,
		"alerts_triggered_total": monitorMetrics.Triggered,
		"quote_errors_total":     monitorMetrics.QuoteErrors,
		"notify_errors_total":    monitorMetrics.NotifyErrors,
	}

	for name, counter := range counters {
		value, err := store.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}

	log.Debug("Metrics loaded from database.")
}

func saveMetricsToDB(store *database.Store, monitorMetrics *alert.Metrics) {
	counters := map[string]prometheus.Collector{
		"commands_processed":     botMetrics.CommandsProcessed,
		"messages_handled":       botMetrics.MessagesHandled,
		"sweeps_total":           monitorMetrics.Sweeps,
		"alerts_triggered_total": monitorMetrics.Triggered,
		"quote_errors_total":     monitorMetrics.QuoteErrors,
		"notify_errors_total":    monitorMetrics.NotifyErrors,
	}

	for name, collector := range counters {
		if err := store.SaveMetric(name, "", "", getMetricValue(collector)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}

	log.Debug("Metrics saved to database.")
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
