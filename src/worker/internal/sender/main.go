// A small dev tool to enqueue a start job for an existing session.
package main

import (
	"encoding/json"
	"os"

	"github.com/PMosby/Stem-Visualizer/src/shared/config/dev"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/job_message"
	"github.com/PMosby/Stem-Visualizer/src/worker/internal/application/jobs/start"
	"github.com/rabbitmq/amqp091-go"
)

func main() {
	if len(os.Args) < 2 {
		panic("Usage: sender <session-id>")
	}

	conn, err := amqp091.Dial(dev.RabbitMQHost)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	rabbitChannel, err := conn.Channel()
	if err != nil {
		panic(err)
	}
	defer rabbitChannel.Close()

	queue, err := rabbitChannel.QueueDeclare(
		dev.RabbitMQQueueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		panic(err)
	}

	startJobParams := start.JobParams{
		SessionIdentifier: job_message.SessionIdentifier{
			SessionID: os.Args[1],
		},
	}

	jobBody, err := json.Marshal(startJobParams)

	if err != nil {
		panic(err)
	}

	job := amqp091.Publishing{Type: start.JobType, Body: jobBody}

	job.DeliveryMode = amqp091.Persistent
	job.ContentType = "application/json"

	err = rabbitChannel.Publish("", queue.Name, true, false, job)

	if err != nil {
		panic(err)
	}
}
