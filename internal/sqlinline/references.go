package sqlinline

const QSelectBreeds = `--sql a20f133b-4162-4c73-9da6-4c20841d0a3e
select id, name, coalesce(species, ''), coalesce(description, '')
from breeds
order by name asc;
`

const QSelectCoats = `--sql 997c0b3d-65a4-4f0f-b3a8-0b363e0843b4
select id, name, coalesce(pattern, ''), coalesce(description, '')
from coats
order by name asc;
`

const QSelectStyles = `--sql 6d69e7e5-b1b0-4df7-a981-8b7fc3b5cde1
select id, name, coalesce(prompt, '')
from styles
order by name asc;
`
