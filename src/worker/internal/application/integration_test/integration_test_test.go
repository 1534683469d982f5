package integration_test_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	"github.com/PMosby/Stem-Visualizer/src/shared/lib/working_dir"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	"github.com/PMosby/Stem-Visualizer/src/shared/stemcache"
	shareddummy "github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/integration_test/dummy"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_router"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/save_results"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/separate/separator"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/start"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/worker"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/lib/storagepath"
	"github.com/rabbitmq/amqp091-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Separation pipeline", func() {
	var (
		session    sessionentity.Session
		bucketName string

		rabbitMQ       *dummy.RabbitMQ
		fileStore      *dummy.FileStore
		sessionStore   *shareddummy.SessionStore
		demucsExecutor *shareddummy.DemucsExecutor

		queueWorker worker.QueueWorker
		run         func()
	)

	BeforeEach(func() {
		By("Instantiating all dummies", func() {
			rabbitMQ = dummy.NewRabbitMQ()
			fileStore = dummy.NewDummyFileStore()
			sessionStore = shareddummy.NewDummySessionStore()
			demucsExecutor = shareddummy.NewDummyDemucsExecutor()
		})

		By("Setting up the session store", func() {
			inputFilePath := filepath.Join(GinkgoT().TempDir(), "song.mp3")
			err := os.WriteFile(inputFilePath, []byte("compressed audio"), 0644)
			Expect(err).NotTo(HaveOccurred())

			session = sessionentity.NewSession("song.mp3", 16, inputFilePath)
			Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())
		})

		bucketName = "stem-visualizer-stems"

		var startHandler start.JobHandler
		By("Creating the start job handler", func() {
			startHandler = start.NewJobHandler(sessionStore)
		})

		var separateHandler separate.JobHandler
		By("Creating the separate job handler", func() {
			demucsSeparator, err := engine.NewDemucsSeparator(GinkgoT().TempDir(), "/whatever/demucs", demucsExecutor)
			Expect(err).NotTo(HaveOccurred())

			cache, err := stemcache.NewCache(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			workingDir, err := working_dir.NewWorkingDir(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			sessionSeparator := separator.NewSessionSeparator(
				engine.NewCachedSeparator(cache, demucsSeparator),
				sessionStore,
				workingDir,
			)
			separateHandler = separate.NewJobHandler(sessionSeparator)
		})

		var saveResultsHandler save_results.JobHandler
		By("Creating the save results job handler", func() {
			pathGenerator := storagepath.Generator{
				Host:   "https://storage.googleapis.com",
				Bucket: bucketName,
			}
			exporter := save_results.NewCloudStemExporter(fileStore, pathGenerator)
			saveResultsHandler = save_results.NewJobHandler(sessionStore, exporter)
		})

		By("Instantiating the worker", func() {
			router := job_router.NewJobRouter(
				sessionStore,
				rabbitMQ,
				startHandler,
				separateHandler,
				saveResultsHandler,
			)
			queueWorker = worker.NewQueueWorker(rabbitMQ, "test-queue", router)
		})

		By("Setting up the run routine", func() {
			run = func() {
				go func() {
					defer GinkgoRecover()
					err := queueWorker.Start()
					Expect(err).NotTo(HaveOccurred())
				}()

				startJobParams := start.JobParams{
					SessionIdentifier: job_message.SessionIdentifier{
						SessionID: session.ID,
					},
				}

				jsonBytes, err := json.Marshal(startJobParams)
				Expect(err).NotTo(HaveOccurred())

				message := amqp091.Publishing{
					Type: start.JobType,
					Body: jsonBytes,
				}
				Expect(rabbitMQ.Publish(message)).To(Succeed())
			}
		})
	})

	Describe("All jobs run successfully", func() {
		It("gets 3 acks", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.AckCounter
			}).Should(Equal(3))
		})

		It("gets no nacks", func() {
			run()

			Consistently(func() int {
				return rabbitMQ.NackCounter
			}).Should(Equal(0))
		})

		It("completes the session with local paths and remote URLs", func() {
			run()

			Eventually(func() bool {
				updated, err := sessionStore.GetSession(context.Background(), session.ID)
				if err != nil {
					return false
				}

				if updated.Status != sessionentity.StatusCompleted {
					return false
				}

				if updated.Progress != 100 {
					return false
				}

				if len(updated.StemFilePaths) != len(stem.Names) {
					return false
				}

				if len(updated.RemoteStemURLs) != len(stem.Names) {
					return false
				}

				for _, stemName := range stem.Names {
					if _, err := os.Stat(updated.StemFilePaths[stemName]); err != nil {
						return false
					}

					contents, err := fileStore.GetFile(context.Background(), updated.RemoteStemURLs[stemName])
					if err != nil || len(contents) == 0 {
						return false
					}
				}

				return true
			}).Should(BeTrue())
		})
	})

	Describe("The separation binary is down", func() {
		BeforeEach(func() {
			demucsExecutor.Unavailable = true
		})

		It("gets 1 ack for the start job", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.AckCounter
			}).Should(Equal(1))
		})

		It("gets 1 nack for the separate job failing", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.NackCounter
			}).Should(Equal(1))
		})

		It("marks the session errored with the separation failure message", func() {
			run()

			Eventually(func() bool {
				updated, err := sessionStore.GetSession(context.Background(), session.ID)
				if err != nil {
					return false
				}

				if updated.Status != sessionentity.StatusError {
					return false
				}

				return updated.StatusMessage == separate.ErrorMessage
			}).Should(BeTrue())
		})
	})

	Describe("Cloud storage is down", func() {
		BeforeEach(func() {
			fileStore.Unavailable = true
		})

		It("gets 2 acks and 1 nack", func() {
			run()

			Eventually(func() int {
				return rabbitMQ.NackCounter
			}).Should(Equal(1))

			Expect(rabbitMQ.AckCounter).To(Equal(2))
		})

		It("marks the session errored with the save failure message", func() {
			run()

			Eventually(func() bool {
				updated, err := sessionStore.GetSession(context.Background(), session.ID)
				if err != nil {
					return false
				}

				if updated.Status != sessionentity.StatusError {
					return false
				}

				return updated.StatusMessage == save_results.ErrorMessage
			}).Should(BeTrue())
		})
	})
})
