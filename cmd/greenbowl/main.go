package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenbowl/auth"
	"greenbowl/cart"
	"greenbowl/catalog"
	"greenbowl/config"
	"greenbowl/orderapi"
	"greenbowl/payment"
	"greenbowl/stream"
	"greenbowl/tracker"
	"greenbowl/www"
)

func main() {
	configPath := flag.String("config", "greenbowl.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	carts, err := cart.Open(cfg.CartDBPath)
	if err != nil {
		log.Fatalf("open cart database: %v", err)
	}
	defer carts.Close()

	orders := orderapi.New(cfg.Services.OrderURL, nil)

	trackers := www.NewTrackerManager(listenerFactory(cfg, orders))

	router, stopWeb := www.NewRouter(www.Deps{
		SessionSecret: cfg.Web.SessionSecret,
		Carts:         carts,
		Auth:          auth.New(cfg.Services.AuthURL, nil),
		Catalog:       catalog.New(cfg.Services.CatalogURL, nil),
		Orders:        orders,
		Payments:      payment.New(cfg.Payment.CheckoutURL, cfg.Payment.MerchantID, cfg.Payment.Secret),
		Trackers:      trackers,
	})
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("GreenBowl listening on %s (feed backend: %s)", addr, cfg.Stream.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Stop trackers and SSE connections first so long-lived streams close
	stopWeb()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

// listenerFactory wires one feed listener per tracked order to the
// configured transport backend.
func listenerFactory(cfg *config.Config, orders *orderapi.Client) www.ListenerFactory {
	return func(orderID string, s *tracker.Session, onChange func(tracker.Snapshot)) *stream.Listener {
		orderSrc, deliverySrc := buildSources(cfg)
		return stream.NewListener(stream.Config{
			OrderID:        orderID,
			Session:        s,
			Seed:           orders.Seed(orderID),
			OrderSource:    orderSrc,
			DeliverySource: deliverySrc,
			OnChange:       onChange,
			BackoffStep:    cfg.Stream.BackoffStep,
			BackoffMax:     cfg.Stream.BackoffMax,
			MaxAttempts:    cfg.Stream.MaxAttempts,
		})
	}
}

func buildSources(cfg *config.Config) (order, delivery stream.Source) {
	sc := cfg.Stream
	switch sc.Backend {
	case "mqtt":
		return stream.NewMQTTSource("order", sc.MQTT.Broker, sc.MQTT.Port, sc.MQTT.ClientID, sc.MQTT.OrderTopicPrefix),
			stream.NewMQTTSource("delivery", sc.MQTT.Broker, sc.MQTT.Port, sc.MQTT.ClientID, sc.MQTT.DeliveryTopicPrefix)
	case "kafka":
		return stream.NewKafkaSource("order", sc.Kafka.Brokers, sc.Kafka.OrderTopic, sc.Kafka.GroupID),
			stream.NewKafkaSource("delivery", sc.Kafka.Brokers, sc.Kafka.DeliveryTopic, sc.Kafka.GroupID)
	default:
		return stream.NewSSESource("order", sc.OrderFeedURL, nil),
			stream.NewSSESource("delivery", sc.DeliveryFeedURL, nil)
	}
}
