package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"loanrisk/api/handler"
	"loanrisk/api/router"
	"loanrisk/job"
	"loanrisk/logic/chat"
	"loanrisk/logic/loader"
	"loanrisk/logic/recommend"
	"loanrisk/logic/risk"
	"loanrisk/service"
	"loanrisk/storage/es"
	milvusstore "loanrisk/storage/milvus"
	"loanrisk/storage/postgres"
	"loanrisk/vars"
)

func main() {
	ctx := context.Background()

	// 1. DB
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		vars.PGHOST, vars.PGUSER, vars.PGPWD, vars.PGDB, vars.PGPORT)
	db, err := postgres.InitDB(dsn)
	if err != nil {
		panic(err)
	}
	repo := postgres.NewAssessmentRepo(db)

	job.StartCronJob(repo)

	// 2. Scoring rules
	rules, err := loader.LoadRules(vars.RULES_FILE)
	if err != nil {
		panic(err)
	}
	engine := risk.NewEngine(rules)
	overlay := risk.NewOverlay(risk.LoadOverlayConfig(vars.BUSINESS_FILE))

	// 3. Models
	chatModel := chat.CreateChatModel(ctx)
	embedder := chat.CreateEmbedder(ctx)

	// 4. Similarity store
	milvusClient, err := client.NewClient(ctx, client.Config{
		Address: vars.MILVUSADDR,
	})
	if err != nil {
		panic(fmt.Sprintf("milvus connect failed: %v", err))
	}
	store, err := milvusstore.NewAssessmentStore(ctx, milvusClient, embedder, vars.COLLECTION)
	if err != nil {
		panic(fmt.Sprintf("milvus init failed: %v", err))
	}

	// 5. Report store
	reports, err := es.NewReportStore([]string{vars.ESADDR}, vars.REPORTINDEX)
	if err != nil {
		panic(err)
	}

	// 6. Services
	analyzer := recommend.NewAnalyzer(chatModel, embedder, store)
	assessmentSvc := service.NewAssessmentService(
		loader.NewClient(), engine, overlay, analyzer, repo, reports)
	rulesSvc := service.NewRulesService(rules, vars.RULES_FILE)

	// 7. Web server
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, rulesSvc)
	r := gin.Default()
	router.RegisterRoutes(r, assessmentHandler)

	log.Println("Server running on " + vars.LISTEN_ADDR)
	r.Run(vars.LISTEN_ADDR)
}
