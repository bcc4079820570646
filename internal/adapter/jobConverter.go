package adapter

import (
	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
)

func ToJobResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobError
	if job.Error.Message != "" {
		errorPtr = &api.JobError{
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:          job.Id,
		DocumentId:  job.DocumentId,
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		Attempt:     job.Attempt,
		Error:       errorPtr,
		StartTime:   job.CreatedTime,
		EndTime:     job.EndTime,
	}
}

func ToDocumentJobsResponse(documentId string, jobs []jobModel.Job) api.DocumentJobsResponse {
	res := api.DocumentJobsResponse{DocumentId: documentId, Jobs: make([]api.JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		res.Jobs = append(res.Jobs, ToJobResponse(j))
	}
	return res
}
