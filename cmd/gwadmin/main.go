// Command gwadmin is the out-of-band operator tool for managing API
// keys and inspecting the semantic cache. It never runs inside the
// request-serving process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apikeys"
	gwconfig "github.com/ozanunal0/Prometheus-Gateway/internal/config"
	"github.com/ozanunal0/Prometheus-Gateway/internal/embedding"
	"github.com/ozanunal0/Prometheus-Gateway/internal/semanticcache"
	"github.com/ozanunal0/Prometheus-Gateway/internal/vectorstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logrus.New()
	infra := gwconfig.LoadInfra()

	switch os.Args[1] {
	case "create-key":
		cmdCreateKey(log, infra, os.Args[2:])
	case "cache":
		cmdCache(log, infra, os.Args[2:])
	case "issue-admin-token":
		cmdIssueAdminToken(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gwadmin <create-key|cache|issue-admin-token> [flags]")
}

func cmdCreateKey(log *logrus.Logger, infra *gwconfig.Infra, args []string) {
	fs := flag.NewFlagSet("create-key", flag.ExitOnError)
	owner := fs.String("owner", "", "owner name this key is issued to")
	fs.Parse(args)

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "error: --owner is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		infra.PostgresUser, infra.PostgresPassword, infra.PostgresHost, infra.PostgresPort, infra.PostgresDB, infra.PostgresSSLMode)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	store := apikeys.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to ensure api_keys schema")
	}

	svc := apikeys.NewService(store)
	plaintext, record, err := svc.CreateKey(ctx, *owner)
	if err != nil {
		log.WithError(err).Fatal("failed to create key")
	}

	// the plaintext key is printed exactly once, here, and never
	// persisted anywhere — this is the operator's only chance to
	// capture it.
	fmt.Printf("API key created for owner %q (id=%s):\n%s\n", record.Owner, record.ID, plaintext)
}

func cmdCache(log *logrus.Logger, infra *gwconfig.Infra, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gwadmin cache <stats|clear-semantic>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	port := 6334
	fmt.Sscanf(infra.QdrantPort, "%d", &port)
	store, err := vectorstore.New(infra.QdrantHost, port)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to qdrant")
	}
	if err := store.EnsureCollection(ctx, embedding.Dimension); err != nil {
		log.WithError(err).Fatal("failed to ensure semantic cache collection")
	}

	sc := semanticcache.New(embedding.New(), store, infra.SemanticSimilarityThreshold, log)

	switch args[0] {
	case "stats":
		stats, err := sc.Stats(ctx)
		if err != nil {
			log.WithError(err).Fatal("failed to fetch semantic cache stats")
		}
		fmt.Printf("semantic cache entries: %d\n", stats.PointCount)
	case "clear-semantic":
		if err := sc.Clear(ctx); err != nil {
			log.WithError(err).Fatal("failed to clear semantic cache")
		}
		fmt.Println("semantic cache cleared")
	default:
		fmt.Fprintln(os.Stderr, "usage: gwadmin cache <stats|clear-semantic>")
		os.Exit(1)
	}
}

// cmdIssueAdminToken mints a short-lived signed token for an operator.
// No HTTP endpoint currently validates these tokens — see DESIGN.md.
func cmdIssueAdminToken(args []string) {
	fs := flag.NewFlagSet("issue-admin-token", flag.ExitOnError)
	subject := fs.String("subject", "admin", "token subject")
	secret := fs.String("secret", os.Getenv("GATEWAY_ADMIN_JWT_SECRET"), "HMAC signing secret")
	fs.Parse(args)

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "error: --secret or GATEWAY_ADMIN_JWT_SECRET is required")
		os.Exit(1)
	}

	claims := jwt.RegisteredClaims{
		Subject:   *subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		Issuer:    "prometheus-gateway",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error signing token:", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
