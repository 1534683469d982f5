package sessionusecase_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/PMosby/Stem-Visualizer/src/server/internal/errors/api"
	sessionerrors "github.com/PMosby/Stem-Visualizer/src/server/internal/session/errors"
	sessionusecase "github.com/PMosby/Stem-Visualizer/src/server/internal/session/usecase"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/decode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/encode"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/mix"
	"github.com/PMosby/Stem-Visualizer/src/shared/audio/wavfile"
	"github.com/PMosby/Stem-Visualizer/src/shared/engine"
	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
	"github.com/PMosby/Stem-Visualizer/src/shared/stem"
	testhelpers "github.com/PMosby/Stem-Visualizer/src/shared/testing"
	"github.com/PMosby/Stem-Visualizer/src/shared/testing/dummy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Usecase", func() {
	var (
		usecase      sessionusecase.Usecase
		sessionStore *dummy.SessionStore
		publisher    *dummy.Publisher
	)

	BeforeEach(func() {
		sessionStore = dummy.NewDummySessionStore()
		publisher = dummy.NewDummyPublisher()

		mixer := mix.NewMixer(decode.NativeWAVDecoder{}, encode.NativeWAVWriter{})
		usecase = sessionusecase.NewUsecase(sessionStore, publisher, decode.NativeWAVDecoder{}, mixer, GinkgoT().TempDir())
	})

	Describe("CreateSession", func() {
		It("saves the upload, stores the session, and enqueues the start job", func() {
			upload := strings.NewReader("compressed audio bytes")

			session, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "", "")
			Expect(apiErr).To(BeNil())

			Expect(session.ID).NotTo(BeEmpty())
			Expect(session.InputFileName).To(Equal("song.mp3"))
			Expect(session.InputFileSize).To(Equal(int64(len("compressed audio bytes"))))
			Expect(session.Status).To(Equal(sessionentity.StatusRequested))
			Expect(session.ModelID).To(Equal(engine.DefaultModel))
			Expect(session.Device).To(Equal(engine.DefaultDevice))

			contents, err := os.ReadFile(session.InputFilePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("compressed audio bytes"))

			Expect(sessionStore.State).To(HaveKey(session.ID))

			Expect(publisher.Published).To(HaveLen(1))
			Expect(publisher.Published[0].Type).To(Equal("start_separation"))

			identifier := map[string]string{}
			Expect(json.Unmarshal(publisher.Published[0].Body, &identifier)).To(Succeed())
			Expect(identifier["session_id"]).To(Equal(session.ID))
		})

		It("accepts an explicit model and device", func() {
			upload := strings.NewReader("audio")

			session, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "mdx_extra_q", "gpu")
			Expect(apiErr).To(BeNil())

			Expect(session.ModelID).To(Equal("mdx_extra_q"))
			Expect(session.Device).To(Equal("gpu"))
		})

		It("rejects an unknown model", func() {
			upload := strings.NewReader("audio")

			_, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "spleeter", "")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(sessionerrors.InvalidModelCode))
			Expect(publisher.Published).To(BeEmpty())
		})

		It("rejects an unknown device", func() {
			upload := strings.NewReader("audio")

			_, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "", "tpu")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(sessionerrors.InvalidDeviceCode))
		})

		It("marks the session errored if the start job can't be published", func() {
			publisher.Unavailable = true
			upload := strings.NewReader("audio")

			_, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "", "")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(api.DefaultErrorCode))

			Expect(sessionStore.State).To(HaveLen(1))
			for _, stored := range sessionStore.State {
				Expect(stored.Status).To(Equal(sessionentity.StatusError))
				Expect(stored.StatusMessage).NotTo(BeEmpty())
			}
		})

		It("fails when the session can't be stored", func() {
			sessionStore.Unavailable = true
			upload := strings.NewReader("audio")

			_, apiErr := usecase.CreateSession(context.Background(), "song.mp3", upload, "", "")
			Expect(apiErr).NotTo(BeNil())
			Expect(publisher.Published).To(BeEmpty())
		})
	})

	Describe("GetSession", func() {
		It("returns a stored session", func() {
			session := sessionentity.NewSession("song.mp3", 16, "/uploads/song.mp3")
			Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())

			found, apiErr := usecase.GetSession(context.Background(), session.ID)
			Expect(apiErr).To(BeNil())
			Expect(found).To(Equal(session))
		})

		It("maps a missing session to the not found code", func() {
			_, apiErr := usecase.GetSession(context.Background(), "no-such-session")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(sessionerrors.SessionNotFoundCode))
		})
	})

	Describe("operations on separated stems", func() {
		var session sessionentity.Session

		BeforeEach(func() {
			stemDir := GinkgoT().TempDir()

			session = sessionentity.NewSession("song.mp3", 16, filepath.Join(stemDir, "song.mp3"))
			session.Status = sessionentity.StatusCompleted
			session.Progress = 100
			session.StemFilePaths = map[string]string{}

			levels := map[string]float32{
				stem.Vocals: 0.1,
				stem.Drums:  0.2,
				stem.Bass:   0.3,
				stem.Other:  0.4,
			}

			for stemName, level := range levels {
				path := filepath.Join(stemDir, stemName+".wav")
				Expect(wavfile.Write(path, testhelpers.SineBuffer(440, 0.2, 44100, float64(level)))).To(Succeed())
				session.StemFilePaths[stemName] = path
			}

			Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())
		})

		Describe("StemFilePath", func() {
			It("returns the stem's path on a completed session", func() {
				path, apiErr := usecase.StemFilePath(context.Background(), session.ID, stem.Vocals)
				Expect(apiErr).To(BeNil())
				Expect(path).To(Equal(session.StemFilePaths[stem.Vocals]))
			})

			It("rejects an unknown stem name", func() {
				_, apiErr := usecase.StemFilePath(context.Background(), session.ID, "guitar")
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.StemNotFoundCode))
			})

			It("refuses while separation is still in flight", func() {
				session.Status = sessionentity.StatusProcessing
				Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())

				_, apiErr := usecase.StemFilePath(context.Background(), session.ID, stem.Vocals)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.SeparationIncompleteCode))
			})

			It("surfaces the session's own error message when separation failed", func() {
				session.SetError("Failed to separate the audio into stems", "debug details")
				Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())

				_, apiErr := usecase.StemFilePath(context.Background(), session.ID, stem.Vocals)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.SeparationFailedCode))
				Expect(apiErr.UserMessage).To(Equal("Failed to separate the audio into stems"))
			})
		})

		Describe("StemFeatures", func() {
			It("extracts the feature bundle from a stem", func() {
				bundle, apiErr := usecase.StemFeatures(context.Background(), session.ID, stem.Vocals)
				Expect(apiErr).To(BeNil())

				Expect(bundle.SampleRate).To(Equal(44100))
				Expect(bundle.AmplitudeEnvelope).NotTo(BeEmpty())
				Expect(bundle.MelSpectrogram).To(HaveLen(128))
			})

			It("reports an undecodable stem", func() {
				Expect(os.WriteFile(session.StemFilePaths[stem.Drums], []byte("not audio"), 0644)).To(Succeed())

				_, apiErr := usecase.StemFeatures(context.Background(), session.ID, stem.Drums)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.UndecodableStemCode))
			})
		})

		Describe("CreateMix", func() {
			It("mixes the selected stems and records the mix on the session", func() {
				mixPath, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{stem.Drums, stem.Vocals})
				Expect(apiErr).To(BeNil())

				mixed, err := wavfile.Read(mixPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(mixed.Peak()).To(BeNumerically("~", 0.9, 0.001))

				updated := sessionStore.State[session.ID]
				Expect(updated.MixFilePaths).To(HaveKeyWithValue("drums-vocals", mixPath))
			})

			It("reuses one key for the same selection in any order", func() {
				firstPath, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{stem.Vocals, stem.Drums})
				Expect(apiErr).To(BeNil())

				secondPath, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{stem.Drums, stem.Vocals})
				Expect(apiErr).To(BeNil())

				Expect(secondPath).To(Equal(firstPath))
			})

			It("rejects an empty selection", func() {
				_, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{})
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.NoStemsSelectedCode))
			})

			It("rejects an unknown stem in the selection", func() {
				_, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{stem.Vocals, "guitar"})
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.StemNotFoundCode))
			})

			It("refuses while separation is still in flight", func() {
				session.Status = sessionentity.StatusProcessing
				Expect(sessionStore.SetSession(context.Background(), session)).To(Succeed())

				_, apiErr := usecase.CreateMix(context.Background(), session.ID, []string{stem.Vocals})
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(sessionerrors.SeparationIncompleteCode))
			})
		})
	})
})
